package taskstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/storage"
	"github.com/Kazuha787/Pharos-Auto-Bot/storage/schema"
)

// Badger keeps one key per ledger entry. The database is owned by the store:
// every Write replaces the whole keyspace in a single transaction.
type Badger struct {
	db storage.Storage
}

func NewBadger(db storage.Storage) *Badger {
	return &Badger{db: db}
}

func (b *Badger) Read(ctx context.Context) (*model.Document, error) {
	ledgers, err := b.db.GetByPrefix(schema.LedgerPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledgers: %w", err)
	}

	version := model.SchemaLegacy
	raw, err := b.db.GetKey(schema.SchemaVersionKey)
	switch {
	case err == nil:
		version, err = strconv.Atoi(string(raw))
		if err != nil {
			return nil, corrupt(fmt.Errorf("schema version %q: %w", raw, err))
		}
	case storage.IsNotFound(err):
		if len(ledgers) == 0 {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	doc := &model.Document{
		Version:    version,
		Migrations: map[string]string{},
		Wallets:    make(model.Ledgers, len(ledgers)),
	}
	for _, item := range ledgers {
		var ledger model.WalletLedger
		if err := json.Unmarshal(item.Value, &ledger); err != nil {
			return nil, corrupt(fmt.Errorf("entry %s: %w", item.Key, err))
		}
		doc.Wallets[schema.IdentityFromLedgerKey(item.Key)] = &ledger
	}

	migrations, err := b.db.GetByPrefix(schema.MigrationPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}
	for _, item := range migrations {
		doc.Migrations[schema.MigrationFromKey(item.Key)] = string(item.Value)
	}

	return normalize(doc), nil
}

func (b *Badger) Write(ctx context.Context, doc *model.Document) error {
	updates := make(map[string][]byte, len(doc.Wallets)+len(doc.Migrations)+1)
	updates[string(schema.SchemaVersionKey)] = []byte(strconv.Itoa(doc.Version))

	for identity, ledger := range doc.Wallets {
		data, err := json.Marshal(ledger)
		if err != nil {
			return fmt.Errorf("failed to encode ledger %s: %w", identity, err)
		}
		updates[string(schema.LedgerStorageKey(identity))] = data
	}
	for name, record := range doc.Migrations {
		updates[string(schema.MigrationStorageKey(name))] = []byte(record)
	}

	// empty prefix: keys no longer in the document are dropped
	if err := b.db.Replace([]byte{}, updates); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func (b *Badger) Backup(ctx context.Context, w io.Writer) error {
	_, err := b.db.Backup(ctx, w, 0)
	return err
}

// Restore loads a badger backup on top of the current keyspace. Keys written
// after the backup was taken survive, so restore into an empty store.
func (b *Badger) Restore(ctx context.Context, r io.Reader) error {
	return b.db.Load(ctx, r)
}

// Compact reclaims disk space held by ledgers that Write replaced.
func (b *Badger) Compact(ctx context.Context) error {
	if err := b.db.Vacuum(); err != nil {
		return fmt.Errorf("failed to compact ledger store: %w", err)
	}
	return nil
}

func (b *Badger) BackupFileName() string {
	return "badger.backup"
}

func (b *Badger) Describe() string {
	return "badger:" + b.db.DbPath()
}

func (b *Badger) Close() error {
	return b.db.Close()
}
