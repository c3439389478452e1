package taskstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/storage"
)

const (
	DriverJSON   = "json"
	DriverBadger = "badger"
)

// ErrCorruptStore wraps any failure to decode what the backend holds.
var ErrCorruptStore = errors.New("ledger store is corrupt")

// Backend persists a whole ledger document. Write must be atomic from the
// point of view of a concurrent Read.
type Backend interface {
	// Read returns (nil, nil) when nothing has been written yet.
	Read(ctx context.Context) (*model.Document, error)
	Write(ctx context.Context, doc *model.Document) error

	Backup(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) error
	BackupFileName() string

	Describe() string
	Close() error
}

// Compactor is implemented by backends that can reclaim space after
// rewrites.
type Compactor interface {
	Compact(ctx context.Context) error
}

// OpenBackend opens the backend named by driver at path.
func OpenBackend(driver, path string) (Backend, error) {
	switch driver {
	case "", DriverJSON:
		return NewJSONFile(path), nil
	case DriverBadger:
		db, err := storage.NewWithPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger ledger at %s: %w", path, err)
		}
		return NewBadger(db), nil
	default:
		return nil, fmt.Errorf("unknown ledger store driver %q", driver)
	}
}

func normalize(doc *model.Document) *model.Document {
	if doc.Migrations == nil {
		doc.Migrations = map[string]string{}
	}
	if doc.Wallets == nil {
		doc.Wallets = model.Ledgers{}
	}
	for key, ledger := range doc.Wallets {
		if ledger == nil {
			delete(doc.Wallets, key)
			continue
		}
		if ledger.Tasks == nil {
			ledger.Tasks = []model.TaskRecord{}
		}
		ledger.Refresh()
	}
	return doc
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorruptStore, err)
}
