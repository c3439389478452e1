package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey1     = "0000000000000000000000000000000000000000000000000000000000000001"
	testAddress1 = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
	testKey2     = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress2 = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestResolveKnownKeys(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"raw key", testKey1, testAddress1},
		{"0x prefixed", "0x" + testKey2, testAddress2},
		{"surrounding whitespace", "  " + testKey2 + "\n", testAddress2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := r.Identity(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newTestResolver(t)

	first, err := r.Resolve(testKey2)
	require.NoError(t, err)
	second, err := r.Resolve(testKey2)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// a fresh resolver with a cold cache derives the same identity
	other := newTestResolver(t)
	third, err := other.Resolve(testKey2)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestResolveInvalidKey(t *testing.T) {
	r := newTestResolver(t)

	for _, key := range []string{"", "nothex", "0x1234", "zz" + testKey1[2:]} {
		_, err := r.Resolve(key)
		require.Error(t, err, "key %q", key)
		assert.True(t, IsInvalidKey(err))

		var invalid *InvalidKeyError
		require.ErrorAs(t, err, &invalid)
		assert.NotContains(t, invalid.Error(), testKey1[8:56])
	}
}

func TestKeyShapes(t *testing.T) {
	assert.True(t, IsLegacyKey(testKey2))
	assert.False(t, IsLegacyKey("0x"+testKey2))
	assert.False(t, IsLegacyKey(testKey2[:63]))
	assert.False(t, IsLegacyKey("g"+testKey2[1:]))

	assert.True(t, IsIdentity(testAddress1))
	assert.False(t, IsIdentity(testKey2))
	assert.False(t, IsIdentity("7E5F4552091A69125d5DfCb7b8C2659029395Bdf"))
}

func TestLoadWalletFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "wallet.json")
		body := `{"wallets":[{"privatekey":"` + testKey1 + `","name":"main"},{"privatekey":"` + testKey2 + `","token":"jwt"}]}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		wallets, err := LoadWalletFile(path)
		require.NoError(t, err)
		require.Len(t, wallets, 2)
		assert.Equal(t, "main", wallets[0].Name)
		assert.Equal(t, "jwt", wallets[1].Token)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWalletFile(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})

	t.Run("entry without key", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"wallets":[{"name":"x"}]}`), 0o600))

		_, err := LoadWalletFile(path)
		assert.Error(t, err)
	})
}

func TestSaveTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	body := `{"wallets":[{"privatekey":"` + testKey1 + `","name":"main","address":"keep"},{"privatekey":"0x` + testKey2 + `"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	require.NoError(t, SaveTokens(path, map[string]string{" 0x" + testKey1 + " ": "fresh"}))

	wallets, err := LoadWalletFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", wallets[0].Token)
	assert.Empty(t, wallets[1].Token)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"address": "keep"`)
}
