package config

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
environment: development
bot_name: Night Shift
SETTINGS:
  THREADS: 2
  ATTEMPTS: 3
  PAUSE_BETWEEN_SWAPS: [5, 10]
  TELEGRAM_LOGS: false
  TELEGRAM_BOT_TOKEN: "123:abc"
  TELEGRAM_USERS_IDS: [111, 222]
FLOW:
  NUMBER_OF_SWAPS: [3, 8]
store:
  driver: badger
  path: data/ledger
  backup_interval: 30m
scripts:
  timeout: 2m
success_rules:
  socialTask: 'any(lines, {# contains "followed"})'
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, sdklogging.Development, c.Environment)
	assert.Equal(t, "Night Shift", c.BotName)
	assert.Equal(t, 2, c.Settings.Threads)
	assert.Equal(t, 3, c.Settings.Attempts)
	assert.Equal(t, []int{5, 10}, c.Settings.PauseBetweenSwaps)
	assert.False(t, c.Settings.TelegramEnabled())
	assert.Equal(t, []int64{111, 222}, c.Settings.TelegramUserIDs)
	assert.Equal(t, []int{3, 8}, c.Flow.NumberOfSwaps)
	assert.Equal(t, "badger", c.Store.Driver)
	assert.Equal(t, "data/ledger", c.Store.Path)
	assert.Equal(t, 30*time.Minute, c.Store.BackupInterval)
	assert.Equal(t, 2*time.Minute, c.Scripts.Timeout)
	assert.Contains(t, c.SuccessRules, "socialTask")

	// defaults fill what the file leaves out
	assert.Equal(t, DefaultBackupDir, c.Store.BackupDir)
	assert.Equal(t, DefaultScriptsDir, c.Scripts.Dir)
	assert.Equal(t, DefaultRPCURL, c.Network.RPCURL)
	assert.EqualValues(t, DefaultChainID, c.Network.ChainID)
	assert.Equal(t, DefaultWalletsPath, c.WalletsPath)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.True(t, c.Settings.TelegramEnabled())
	assert.Equal(t, "json", c.Store.Driver)
	assert.Equal(t, DefaultStorePath, c.Store.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "SETTINGS: [unclosed"},
		{"unknown driver", "store:\n  driver: sqlite\n"},
		{"inverted swaps", "FLOW:\n  NUMBER_OF_SWAPS: [9, 2]\n"},
		{"swaps shape", "FLOW:\n  NUMBER_OF_SWAPS: [1, 2, 3]\n"},
		{"bad rpc", "network:\n  rpc_url: not a url\n"},
		{"bad environment", "environment: staging\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestPickTxCount(t *testing.T) {
	c := Default()
	c.Flow.NumberOfSwaps = []int{3, 5}
	r := rand.New(rand.NewPCG(3, 4))

	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		n := c.PickTxCount(r)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
		seen[n] = true
	}
	assert.Len(t, seen, 3)

	c.Flow.NumberOfSwaps = nil
	assert.Equal(t, DefaultTxCount, c.PickTxCount(r))
}

func TestSettingsValuesOmitCredentials(t *testing.T) {
	c := Default()
	c.Settings.TelegramBotToken = "secret"
	values := c.Settings.Values()
	assert.Equal(t, 1, values["THREADS"])
	for _, v := range values {
		assert.NotEqual(t, "secret", v)
	}
}
