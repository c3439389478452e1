package migrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/backup"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
)

// ErrIncomplete is returned by a migration that made progress but left some
// records behind. Its changes are kept, the schema version is not bumped, so
// the migration is dispatched again on the next load.
var ErrIncomplete = errors.New("migration incomplete")

// MigrationFunc upgrades doc in place and returns the number of records it
// touched.
type MigrationFunc func(doc *model.Document) (int, error)

// Migration moves a document from FromVersion to ToVersion
type Migration struct {
	Name        string
	FromVersion int
	ToVersion   int
	Function    MigrationFunc
}

// Migrator dispatches migrations on the declared schema version of a document
type Migrator struct {
	logger     sdklogging.Logger
	migrations []Migration
	backup     *backup.Service
	backedUp   map[int]bool
	mu         sync.Mutex
}

// NewMigrator creates a new migrator instance. backup may be nil.
func NewMigrator(log sdklogging.Logger, backup *backup.Service, migrations []Migration) *Migrator {
	return &Migrator{
		logger:     logger.EnsureLogger(log),
		migrations: append([]Migration{}, migrations...),
		backup:     backup,
		backedUp:   map[int]bool{},
	}
}

// Register adds a new migration to the list
func (m *Migrator) Register(migration Migration) error {
	if migration.ToVersion <= migration.FromVersion {
		return fmt.Errorf("migration %s must move the schema forward (%d -> %d)", migration.Name, migration.FromVersion, migration.ToVersion)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.migrations = append(m.migrations, migration)
	return nil
}

func (m *Migrator) next(version int) (Migration, bool) {
	for _, migration := range m.migrations {
		if migration.FromVersion == version && migration.ToVersion > version {
			return migration, true
		}
	}
	return Migration{}, false
}

// Run applies every migration reachable from doc.Version, in order. It
// reports whether doc changed and has to be persisted.
func (m *Migrator) Run(ctx context.Context, doc *model.Document) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	for {
		migration, ok := m.next(doc.Version)
		if !ok {
			return changed, nil
		}

		// Snapshot the persisted store once per schema version before touching it
		if m.backup != nil && !m.backedUp[doc.Version] {
			m.logger.Info("Pending migrations found, creating ledger backup before proceeding", "version", doc.Version)
			backupFile, err := m.backup.PerformBackup(ctx)
			if err != nil {
				return changed, fmt.Errorf("failed to create backup before migrations: %w", err)
			}
			m.backedUp[doc.Version] = true
			m.logger.Info("Ledger backup created", "file", backupFile)
		}

		m.logger.Info("Running migration", "name", migration.Name, "from", migration.FromVersion, "to", migration.ToVersion)
		work := doc.Clone()
		records, err := migration.Function(work)
		switch {
		case errors.Is(err, ErrIncomplete):
			*doc = *work
			m.logger.Warn("Migration left records behind, will retry on next load", "name", migration.Name, "records", records)
			return changed || records > 0, nil
		case err != nil:
			return changed, fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}

		work.Version = migration.ToVersion
		work.MarkMigrated(migration.Name, records, time.Now())
		*doc = *work
		changed = true
		m.logger.Info("Migration completed successfully", "name", migration.Name, "records", records)
	}
}
