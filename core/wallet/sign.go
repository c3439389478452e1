package wallet

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignMessage produces an EIP-191 personal_sign signature, the format the
// testnet login endpoint expects.
func SignMessage(secretKey, message string) (string, error) {
	normalized := normalizeKey(secretKey)
	key, err := crypto.HexToECDSA(normalized)
	if err != nil {
		return "", &InvalidKeyError{Hint: keyHint(normalized), Err: err}
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return "0x" + hex.EncodeToString(sig), nil
}
