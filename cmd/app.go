package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/lo"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/backup"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/config"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/executor"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/migrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/notifier"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/orchestrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/taskstore"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/wallet"
	"github.com/Kazuha787/Pharos-Auto-Bot/metrics"
	"github.com/Kazuha787/Pharos-Auto-Bot/migrations"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

// app holds everything a command needs, built once from the config file.
type app struct {
	cfg        *config.Config
	logger     sdklogging.Logger
	resolver   *wallet.Resolver
	backend    taskstore.Backend
	store      *taskstore.Store
	backups    *backup.Service
	catalogue  *executor.Catalogue
	classifier *executor.Classifier
	notifier   notifier.Notifier
	registry   *prometheus.Registry
	metrics    *metrics.RunMetrics
	rand       *rand.Rand
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log, err := sdklogging.NewZapLogger(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	resolver, err := wallet.NewResolver()
	if err != nil {
		return nil, err
	}

	backend, err := taskstore.OpenBackend(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		_ = resolver.Close()
		return nil, err
	}
	backups := backup.NewService(log, backend, cfg.Store.BackupDir)
	m := migrator.NewMigrator(log, backups, migrations.Migrations(resolver))

	classifier, err := executor.NewClassifier(cfg.SuccessRules)
	if err != nil {
		_ = backend.Close()
		_ = resolver.Close()
		return nil, fmt.Errorf("invalid success_rules: %w", err)
	}

	catalogue := executor.NewCatalogue()
	loaded, err := executor.LoadScripts(catalogue, cfg.Scripts.Dir, executor.ScriptOptions{
		Timeout: cfg.Scripts.Timeout,
		Logger:  log,
	})
	if err != nil {
		_ = backend.Close()
		_ = resolver.Close()
		return nil, err
	}
	log.Debug("Task scripts loaded", "dir", cfg.Scripts.Dir, "count", loaded)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	return &app{
		cfg:        cfg,
		logger:     log,
		resolver:   resolver,
		backend:    backend,
		store:      taskstore.New(backend, resolver, m, log),
		backups:    backups,
		catalogue:  catalogue,
		classifier: classifier,
		notifier: notifier.New(notifier.TelegramConfig{
			Enabled:  cfg.Settings.TelegramEnabled(),
			BotToken: cfg.Settings.TelegramBotToken,
			ChatIDs:  cfg.Settings.TelegramUserIDs,
		}, log),
		registry: registry,
		metrics:  metrics.NewRunMetrics(registry),
		rand:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}, nil
}

func (a *app) Close() {
	a.backups.StopPeriodicBackup()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close ledger store", "error", err)
	}
	_ = a.resolver.Close()
}

func (a *app) loadWallets() ([]model.Wallet, error) {
	return wallet.LoadWalletFile(a.cfg.WalletsPath)
}

func (a *app) orchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(a.store, a.resolver, a.catalogue, a.logger,
		orchestrator.WithNotifier(a.notifier),
		orchestrator.WithClassifier(a.classifier),
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithBotName(a.cfg.BotName),
		orchestrator.WithRand(a.rand),
	)
}

// runContext builds the state of one invocation. txCount <= 0 draws a count
// from FLOW.NUMBER_OF_SWAPS.
func (a *app) runContext(wallets []model.Wallet, txCount int) *orchestrator.RunContext {
	if txCount <= 0 {
		txCount = a.cfg.PickTxCount(a.rand)
	}
	return orchestrator.NewRunContext(wallets, txCount, orchestrator.Settings{
		Threads:    a.cfg.Settings.Threads,
		Attempts:   a.cfg.Settings.Attempts,
		SkipFailed: a.cfg.Settings.SkipFailed,
		Values:     a.cfg.Settings.Values(),
	})
}

// taskNames parses a comma separated --tasks value. Empty means every known
// task. Names the catalogue cannot run are accepted with a warning: they stay
// pending until a script for them is installed.
func (a *app) taskNames(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return executor.KnownTaskNames(), nil
	}

	names := lo.Uniq(lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})))
	if len(names) == 0 {
		return nil, fmt.Errorf("no task names in %q", raw)
	}
	for _, name := range names {
		if _, err := a.catalogue.Lookup(name); err != nil {
			a.logger.Warn("No executor installed for task", "task", name)
		}
	}
	return names, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
