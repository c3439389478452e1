package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// legacyKeyLength is the length of a hex encoded secp256k1 secret without 0x.
const legacyKeyLength = 64

// InvalidKeyError is returned when a secret key cannot be parsed.
type InvalidKeyError struct {
	// Hint holds the first and last characters only; never the full secret.
	Hint string
	Err  error
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid secret key %s: %v", e.Hint, e.Err)
}

func (e *InvalidKeyError) Unwrap() error {
	return e.Err
}

// Resolver derives canonical wallet identities (EIP-55 addresses) from
// secret keys. Results are memoized; the cache is keyed by a digest of the
// key so the raw secret never ends up as a cache key.
type Resolver struct {
	cache *bigcache.BigCache
}

func NewResolver() (*Resolver, error) {
	config := bigcache.Config{
		Shards:             16,
		LifeWindow:         time.Hour,
		CleanWindow:        10 * time.Minute,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       common.AddressLength,
		HardMaxCacheSize:   1,
	}

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver cache: %w", err)
	}

	return &Resolver{cache: cache}, nil
}

// Resolve returns the address controlled by secretKey. A leading 0x and
// surrounding whitespace are tolerated.
func (r *Resolver) Resolve(secretKey string) (common.Address, error) {
	normalized := normalizeKey(secretKey)

	cacheKey := hex.EncodeToString(crypto.Keccak256([]byte(normalized)))
	if r.cache != nil {
		if cached, err := r.cache.Get(cacheKey); err == nil && len(cached) == common.AddressLength {
			return common.BytesToAddress(cached), nil
		}
	}

	privateKey, err := crypto.HexToECDSA(normalized)
	if err != nil {
		return common.Address{}, &InvalidKeyError{Hint: keyHint(normalized), Err: err}
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	if r.cache != nil {
		_ = r.cache.Set(cacheKey, address.Bytes())
	}

	return address, nil
}

// Identity is Resolve rendered as the canonical ledger key.
func (r *Resolver) Identity(secretKey string) (string, error) {
	address, err := r.Resolve(secretKey)
	if err != nil {
		return "", err
	}
	return address.Hex(), nil
}

func (r *Resolver) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// IsLegacyKey reports whether a stored ledger key looks like a raw secret
// key: exactly 64 hex characters without a 0x prefix.
func IsLegacyKey(key string) bool {
	if len(key) != legacyKeyLength || has0xPrefix(key) {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

// IsIdentity reports whether key is shaped like a canonical address.
func IsIdentity(key string) bool {
	return has0xPrefix(key) && common.IsHexAddress(key)
}

// IsInvalidKey reports whether err came from a malformed secret key.
func IsInvalidKey(err error) bool {
	var target *InvalidKeyError
	return errors.As(err, &target)
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if has0xPrefix(key) {
		key = key[2:]
	}
	return key
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func keyHint(key string) string {
	if len(key) <= 8 {
		return "(" + fmt.Sprint(len(key)) + " chars)"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
