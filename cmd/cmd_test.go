package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/testutil"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

// fixture lays out config.yaml, wallet.json and two task scripts in a temp
// dir: accountLogin succeeds, accountCheckIn throws.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	scripts := filepath.Join(dir, "tasks")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "accountLogin.js"),
		[]byte(`log("Account Login completed."); return "success";`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "accountCheckIn.js"),
		[]byte(`throw new Error("rpc down");`), 0o644))

	testutil.WriteJSON(t, dir, "wallet.json", model.WalletFile{Wallets: testutil.TestWallets()})

	config := fmt.Sprintf(`
environment: development
wallets_path: %[1]s/wallet.json
SETTINGS:
  TELEGRAM_LOGS: false
FLOW:
  NUMBER_OF_SWAPS: [2, 4]
store:
  driver: json
  path: %[1]s/wallet_tasks_db.json
  backup_dir: %[1]s/backup
scripts:
  dir: %[1]s/tasks
`, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
	return path
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	dbTasks, dbYes, dbRaw = "", false, false
	runCron, runScheduledFlag, runTxCount, runImmediate, runServe = "", false, 0, true, false
	taskTxCount = 0
	statsNotify, statsSaveTokens = false, true
	backupInterval, restoreFile, restoreYes = 0, "", false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestDBResetShowStatus(t *testing.T) {
	cfg := fixture(t)

	out, err := execute(t, "", "-c", cfg, "db", "reset", "--yes", "--tasks", "accountLogin, accountCheckIn")
	require.NoError(t, err)
	assert.Contains(t, out, "Database reset and initialized: 3 wallets, 2 tasks each.")

	out, err = execute(t, "", "-c", cfg, "db", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet: 0x7E5F... | Status: pending | Tasks: accountLogin(pending), accountCheckIn(pending)")

	out, err = execute(t, "", "-c", cfg, "db", "show", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, testutil.Address1)

	out, err = execute(t, "", "-c", cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Wallets: 3 (0 completed, 3 pending)")
	assert.Contains(t, out, "Task executors installed: 2")
}

func TestDBResetNeedsConfirmation(t *testing.T) {
	cfg := fixture(t)

	out, err := execute(t, "n\n", "-c", cfg, "db", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = execute(t, "", "-c", cfg, "db", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is empty.")
}

func TestDBAddOnlyNewWallets(t *testing.T) {
	cfg := fixture(t)

	_, err := execute(t, "", "-c", cfg, "db", "add", "--tasks", "accountLogin")
	require.NoError(t, err)

	out, err := execute(t, "", "-c", cfg, "db", "add", "--tasks", "accountCheckIn")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 0 new wallets to DB.")
}

func TestRunRecordsSuccesses(t *testing.T) {
	cfg := fixture(t)

	_, err := execute(t, "", "-c", cfg, "db", "reset", "-y", "--tasks", "accountLogin,accountCheckIn")
	require.NoError(t, err)

	out, err := execute(t, "", "-c", cfg, "run", "--tx-count", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 wallets, transaction count 3")
	assert.Contains(t, out, "3 tasks completed, 3 failed")

	out, err = execute(t, "", "-c", cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Tasks:   6 (3 completed, 3 pending)")

	// the second run only retries what is still pending
	out, err = execute(t, "", "-c", cfg, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "0 tasks completed, 3 failed")
}

func TestRunFailsWithoutWalletFile(t *testing.T) {
	cfg := fixture(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(cfg), "wallet.json")))

	_, err := execute(t, "", "-c", cfg, "run")
	assert.Error(t, err)
}

func TestTaskLeavesLedgerAlone(t *testing.T) {
	cfg := fixture(t)

	out, err := execute(t, "", "-c", cfg, "task", "accountLogin")
	require.NoError(t, err)
	assert.Contains(t, out, "Account Login: 3 completed, 0 failed")

	out, err = execute(t, "", "-c", cfg, "task", "accountCheckIn")
	require.NoError(t, err)
	assert.Contains(t, out, "Account Check-in: 0 completed, 3 failed")

	out, err = execute(t, "", "-c", cfg, "db", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is empty.")
}

func TestBackupRestore(t *testing.T) {
	cfg := fixture(t)

	_, err := execute(t, "", "-c", cfg, "db", "reset", "-y", "--tasks", "accountLogin")
	require.NoError(t, err)

	out, err := execute(t, "", "-c", cfg, "backup")
	require.NoError(t, err)
	m := regexp.MustCompile(`Backup completed successfully to (\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2)

	_, err = execute(t, "", "-c", cfg, "db", "reset", "-y", "--tasks", "socialTask")
	require.NoError(t, err)

	out, err = execute(t, "", "-c", cfg, "restore", "--file", m[1], "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Restore completed successfully")

	out, err = execute(t, "", "-c", cfg, "db", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "accountLogin(pending)")
	assert.NotContains(t, out, "socialTask")
}

func TestMenu(t *testing.T) {
	cfg := fixture(t)

	// 99 is out of range, 15 sets the transaction count, 16 exits
	out, err := execute(t, "99\n15\n7\n16\n", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "01 > Account Login")
	assert.Contains(t, out, "Invalid option. Try again.")
	assert.Contains(t, out, "Set transaction count to: 7")
	assert.Contains(t, out, "Exiting...")
}

func TestMenuDatabaseManagerAndRunAll(t *testing.T) {
	cfg := fixture(t)

	input := strings.Join([]string{
		"13", "1", "y", "1,2", // reset with accountLogin and accountCheckIn
		"2", "4", // show, leave the database manager
		"12", "", // run all, press enter
		"1", "", // account login for every wallet, press enter
	}, "\n") + "\n"

	// input ends without choosing Exit: end of input closes the menu
	out, err := execute(t, input, "-c", cfg, "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "Database reset and initialized: 3 wallets, 2 tasks each.")
	assert.Contains(t, out, "Wallet DB:")
	assert.Contains(t, out, "3 tasks completed, 3 failed")
	assert.Contains(t, out, "Account Login: 3 completed, 0 failed")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Regexp(t, `^\d+\.\d+\.\d+ \(`, out)
}

func TestBackupCompactsBadgerStore(t *testing.T) {
	cfg := fixture(t)
	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	badgerDir := filepath.Join(filepath.Dir(cfg), "ledger-badger")
	data = []byte(strings.NewReplacer(
		"driver: json", "driver: badger",
		filepath.Join(filepath.Dir(cfg), "wallet_tasks_db.json"), badgerDir,
	).Replace(string(data)))
	require.NoError(t, os.WriteFile(cfg, data, 0o644))

	_, err = execute(t, "", "-c", cfg, "db", "reset", "-y", "--tasks", "accountLogin")
	require.NoError(t, err)

	out, err := execute(t, "", "-c", cfg, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup completed successfully")
	assert.Contains(t, out, "Compacted badger:"+badgerDir)

	out, err = execute(t, "", "-c", cfg, "db", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "accountLogin(pending)")
}
