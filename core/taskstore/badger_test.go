package taskstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/migrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/testutil"
	"github.com/Kazuha787/Pharos-Auto-Bot/migrations"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/storage"
	"github.com/Kazuha787/Pharos-Auto-Bot/storage/schema"
)

func newBadgerStore(t *testing.T) (*Store, storage.Storage) {
	t.Helper()
	db := testutil.TestMustDB()
	t.Cleanup(func() { storage.Destroy(db.(*storage.BadgerStorage)) })

	resolver := newResolver(t)
	m := migrator.NewMigrator(nil, nil, migrations.Migrations(resolver))
	return New(NewBadger(db), resolver, m, testutil.GetLogger()), db
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, db := newBadgerStore(t)

	n, err := store.ResetAll(ctx, testutil.TestWallets(), taskNames)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.UpdateTaskStatus(ctx, testutil.Address2, "accountLogin", model.StatusCompleted))

	count, err := db.CountKeysByPrefix(schema.LedgerPrefix)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	version, err := db.GetKey(schema.SchemaVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "2", string(version))

	ledger, err := store.GetLedger(ctx, testutil.Address2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, ledger.Find("accountLogin").Status)
	assert.Equal(t, "beta", ledger.Name)

	// a reset drops ledgers that are no longer assigned
	_, err = store.ResetAll(ctx, testutil.TestWallets()[:1], taskNames)
	require.NoError(t, err)
	count, err = db.CountKeysByPrefix(schema.LedgerPrefix)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestBadgerStoreMigratesLegacyKeys(t *testing.T) {
	ctx := context.Background()
	store, db := newBadgerStore(t)

	// a store written before the version key existed
	require.NoError(t, db.Set(schema.LedgerStorageKey(testutil.Key1),
		[]byte(`{"tasks":[{"name":"a","status":"pending","index":1}],"status":"pending"}`)))

	ledgers, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, ledgers, testutil.Address1)
	assert.NotContains(t, ledgers, testutil.Key1)

	exists, err := db.Exist(schema.LedgerStorageKey(testutil.Key1))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = db.Exist(schema.MigrationStorageKey("20250701-090000-canonical-address-keys"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBadgerStoreCorruptEntryReadsEmpty(t *testing.T) {
	store, db := newBadgerStore(t)
	require.NoError(t, db.Set(schema.LedgerStorageKey(testutil.Address1), []byte("{")))

	ledgers, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ledgers)
}

func TestBadgerBackupRestore(t *testing.T) {
	ctx := context.Background()
	source, _ := newBadgerStore(t)
	require.NoError(t, source.SetLedger(ctx, testutil.Address1, model.NewTaskRecords([]string{"a"})))

	var snapshot bytes.Buffer
	require.NoError(t, source.Backend().Backup(ctx, &snapshot))

	target, _ := newBadgerStore(t)
	require.NoError(t, target.Backend().Restore(ctx, &snapshot))

	ledger, err := target.GetLedger(ctx, testutil.Address1)
	require.NoError(t, err)
	assert.Len(t, ledger.Tasks, 1)
}

func TestBadgerCompactKeepsLedgers(t *testing.T) {
	ctx := context.Background()
	store, _ := newBadgerStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.ResetAll(ctx, testutil.TestWallets(), taskNames)
		require.NoError(t, err)
	}

	compactor, ok := store.Backend().(Compactor)
	require.True(t, ok)
	require.NoError(t, compactor.Compact(ctx))

	ledgers, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, ledgers, 3)

	_, ok = Backend(NewJSONFile(t.TempDir() + "/db.json")).(Compactor)
	assert.False(t, ok)
}
