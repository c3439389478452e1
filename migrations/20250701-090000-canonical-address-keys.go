package migrations

import (
	"sort"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/migrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/wallet"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

// CanonicalAddressKeys re-keys ledgers stored under a raw secret key to the
// address derived from it.
//
// The first release keyed the ledger by private key. A ledger is copied to
// its address only when that address has no ledger yet; the secret-keyed
// entry is dropped either way. Keys that fail to resolve stay where they are
// and the migration reports migrator.ErrIncomplete so it runs again next load.
func CanonicalAddressKeys(resolver IdentityResolver) migrator.MigrationFunc {
	return func(doc *model.Document) (int, error) {
		keys := make([]string, 0, len(doc.Wallets))
		for k := range doc.Wallets {
			keys = append(keys, k)
		}
		// two spellings of one secret resolve to the same address, first wins
		sort.Strings(keys)

		migrated, stuck := 0, 0
		for _, key := range keys {
			if !wallet.IsLegacyKey(key) {
				continue
			}

			identity, err := resolver.Identity(key)
			if err != nil {
				stuck++
				continue
			}

			if _, exists := doc.Wallets[identity]; !exists {
				doc.Wallets[identity] = doc.Wallets[key]
			}
			delete(doc.Wallets, key)
			migrated++
		}

		if stuck > 0 {
			return migrated, migrator.ErrIncomplete
		}
		return migrated, nil
	}
}
