package schema

import (
	"fmt"
	"strings"
)

// Key layout of the badger ledger backend:
//
//	v:schema        -> schema version, decimal string
//	l:<identity>    -> ledger JSON
//	m:<migration>   -> "records=N,ts=MS"
var (
	SchemaVersionKey = []byte("v:schema")
	LedgerPrefix     = []byte("l:")
	MigrationPrefix  = []byte("m:")
)

// LedgerStorageKey returns the key holding the ledger of identity
func LedgerStorageKey(identity string) []byte {
	return []byte(fmt.Sprintf("l:%s", identity))
}

// MigrationStorageKey returns the key recording a completed migration
func MigrationStorageKey(name string) []byte {
	return []byte(fmt.Sprintf("m:%s", name))
}

// IdentityFromLedgerKey strips the ledger prefix off a storage key
func IdentityFromLedgerKey(key []byte) string {
	return strings.TrimPrefix(string(key), string(LedgerPrefix))
}

// MigrationFromKey strips the migration prefix off a storage key
func MigrationFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), string(MigrationPrefix))
}
