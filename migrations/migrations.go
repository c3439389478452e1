package migrations

import (
	"github.com/Kazuha787/Pharos-Auto-Bot/core/migrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

// IdentityResolver maps a secret key to its canonical wallet identity.
type IdentityResolver interface {
	Identity(secretKey string) (string, error)
}

// Migrations returns the ordered list of ledger schema migrations.
// The name of a migration is recorded in the ledger document, prefix it with
// the timestamp in format of YYYYMMDD-HHMMSS so the history reads in order.
func Migrations(resolver IdentityResolver) []migrator.Migration {
	return []migrator.Migration{
		{
			Name:        "20250701-090000-canonical-address-keys",
			FromVersion: model.SchemaLegacy,
			ToVersion:   model.SchemaCurrent,
			Function:    CanonicalAddressKeys(resolver),
		},
	}
}
