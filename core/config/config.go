package config

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
)

const (
	DefaultConfigPath  = "config.yaml"
	DefaultWalletsPath = "wallet.json"
	DefaultStorePath   = "wallet_tasks_db.json"
	DefaultBackupDir   = "backup"
	DefaultScriptsDir  = "tasks"
	DefaultRPCURL      = "https://testnet.dplabs-internal.com"
	DefaultAPIURL      = "https://api.pharosnetwork.xyz"
	DefaultChainID     = 688688
	DefaultTxCount     = 5
	DefaultBindAddress = "127.0.0.1:8089"
)

// Settings is the SETTINGS section, shared with the task scripts.
type Settings struct {
	Threads                    int     `yaml:"THREADS" validate:"gte=1"`
	Attempts                   int     `yaml:"ATTEMPTS" validate:"gte=1"`
	PauseBetweenAttempts       []int   `yaml:"PAUSE_BETWEEN_ATTEMPTS" validate:"omitempty,len=2"`
	PauseBetweenSwaps          []int   `yaml:"PAUSE_BETWEEN_SWAPS" validate:"omitempty,len=2"`
	RandomPauseBetweenAccounts []int   `yaml:"RANDOM_PAUSE_BETWEEN_ACCOUNTS" validate:"omitempty,len=2"`
	RandomPauseBetweenActions  []int   `yaml:"RANDOM_PAUSE_BETWEEN_ACTIONS" validate:"omitempty,len=2"`
	SkipFailed                 bool    `yaml:"SKIP_FAILED"`
	TelegramLogs               *bool   `yaml:"TELEGRAM_LOGS"`
	TelegramBotToken           string  `yaml:"TELEGRAM_BOT_TOKEN"`
	TelegramUserIDs            []int64 `yaml:"TELEGRAM_USERS_IDS"`
}

// TelegramEnabled reports whether Telegram logs are on. They are on unless TELEGRAM_LOGS is false.
func (s Settings) TelegramEnabled() bool {
	return s.TelegramLogs == nil || *s.TelegramLogs
}

// Values flattens the section into the table handed to task scripts.
// Credentials are left out.
func (s Settings) Values() map[string]any {
	return map[string]any{
		"THREADS":                       s.Threads,
		"ATTEMPTS":                      s.Attempts,
		"PAUSE_BETWEEN_ATTEMPTS":        s.PauseBetweenAttempts,
		"PAUSE_BETWEEN_SWAPS":           s.PauseBetweenSwaps,
		"RANDOM_PAUSE_BETWEEN_ACCOUNTS": s.RandomPauseBetweenAccounts,
		"RANDOM_PAUSE_BETWEEN_ACTIONS":  s.RandomPauseBetweenActions,
		"SKIP_FAILED":                   s.SkipFailed,
	}
}

type Flow struct {
	// NumberOfSwaps is the inclusive [min, max] range the per-run
	// transaction count is drawn from.
	NumberOfSwaps []int `yaml:"NUMBER_OF_SWAPS" validate:"omitempty,len=2,dive,gte=1"`
}

type Store struct {
	Driver         string        `yaml:"driver" validate:"oneof=json badger"`
	Path           string        `yaml:"path" validate:"required"`
	BackupDir      string        `yaml:"backup_dir" validate:"required"`
	BackupInterval time.Duration `yaml:"backup_interval"`
}

type Scripts struct {
	Dir     string        `yaml:"dir" validate:"required"`
	Timeout time.Duration `yaml:"timeout"`
}

type Network struct {
	RPCURL  string `yaml:"rpc_url" validate:"required,url"`
	APIURL  string `yaml:"api_url" validate:"required,url"`
	ChainID int64  `yaml:"chain_id" validate:"gt=0"`
}

// Config is the whole config.yaml.
type Config struct {
	Environment sdklogging.LogLevel `yaml:"environment" validate:"oneof=production development"`
	BotName     string              `yaml:"bot_name"`
	WalletsPath string              `yaml:"wallets_path" validate:"required"`

	Settings Settings `yaml:"SETTINGS"`
	Flow     Flow     `yaml:"FLOW"`

	Store   Store   `yaml:"store"`
	Scripts Scripts `yaml:"scripts"`
	Network Network `yaml:"network"`

	HTTPBindAddress string `yaml:"http_bind_address"`
	// Schedule is a cron expression used by `run --cron` when the flag is
	// not given.
	Schedule string `yaml:"schedule"`

	// SuccessRules overrides the expressions that classify single task runs.
	SuccessRules map[string]string `yaml:"success_rules"`
}

var validate = validator.New()

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path, fills defaults and validates. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	c := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %s\nMake sure it exists and is a valid yaml file: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	c.applyDefaults()
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if r := c.Flow.NumberOfSwaps; len(r) == 2 && r[0] > r[1] {
		return nil, fmt.Errorf("invalid config %s: FLOW.NUMBER_OF_SWAPS min %d above max %d", path, r[0], r[1])
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = sdklogging.Production
	}
	if c.BotName == "" {
		c.BotName = "Pharos Bot"
	}
	if c.WalletsPath == "" {
		c.WalletsPath = DefaultWalletsPath
	}
	if c.Settings.Threads == 0 {
		c.Settings.Threads = 1
	}
	if c.Settings.Attempts == 0 {
		c.Settings.Attempts = 5
	}
	if len(c.Flow.NumberOfSwaps) == 0 {
		c.Flow.NumberOfSwaps = []int{DefaultTxCount, DefaultTxCount}
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "json"
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Store.BackupDir == "" {
		c.Store.BackupDir = DefaultBackupDir
	}
	if c.Scripts.Dir == "" {
		c.Scripts.Dir = DefaultScriptsDir
	}
	if c.Network.RPCURL == "" {
		c.Network.RPCURL = DefaultRPCURL
	}
	if c.Network.APIURL == "" {
		c.Network.APIURL = DefaultAPIURL
	}
	if c.Network.ChainID == 0 {
		c.Network.ChainID = DefaultChainID
	}
	if c.HTTPBindAddress == "" {
		c.HTTPBindAddress = DefaultBindAddress
	}
}

// PickTxCount draws the per-run transaction count uniformly from
// FLOW.NUMBER_OF_SWAPS.
func (c *Config) PickTxCount(r *rand.Rand) int {
	span := c.Flow.NumberOfSwaps
	if len(span) != 2 || span[1] < span[0] {
		return DefaultTxCount
	}
	return span[0] + r.IntN(span[1]-span[0]+1)
}
