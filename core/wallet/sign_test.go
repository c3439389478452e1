package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignMessageRecoversSigner(t *testing.T) {
	sig, err := SignMessage("0x"+testKey2, "pharos")
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	require.Len(t, raw, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, raw[crypto.RecoveryIDOffset])

	raw[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("pharos")), raw)
	require.NoError(t, err)
	assert.Equal(t, testAddress2, crypto.PubkeyToAddress(*pub).Hex())
}

func TestSignMessageInvalidKey(t *testing.T) {
	_, err := SignMessage("zz", "pharos")
	assert.True(t, IsInvalidKey(err))
}
