// Package orchestrator drives batch runs: for every wallet it runs the pending
// tasks of its ledger and records each success as soon as it happens, so an
// interrupted batch resumes where it stopped.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/samber/lo"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/executor"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/notifier"
	"github.com/Kazuha787/Pharos-Auto-Bot/metrics"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
)

const DefaultBotName = "Pharos Bot"

// Store is the part of the task store the orchestrator needs.
type Store interface {
	Lookup(ctx context.Context, identity string) (string, *model.WalletLedger, error)
	UpdateTaskStatus(ctx context.Context, identity, taskName string, status model.Status) error
}

type Resolver interface {
	Identity(secretKey string) (string, error)
}

type Catalogue interface {
	Lookup(name string) (executor.Executor, error)
	Label(name string) string
}

// Wallet turn results, also used as metric labels.
const (
	TurnProcessed  = "processed"
	TurnCompleted  = "completed"
	TurnUnassigned = "unassigned"
	TurnInvalidKey = "invalid_key"
	TurnError      = "error"
)

// WalletResult is what happened to one wallet in a run.
type WalletResult struct {
	Identity string
	Name     string
	Position int
	Result   string
	// Completed and Failed hold task names in execution order.
	Completed  []string
	Failed     []string
	TotalTasks int
	Err        error
}

// BatchResult summarizes a whole run, wallets in the order they were visited.
type BatchResult struct {
	RunID    string
	Task     string
	Wallets  []WalletResult
	Started  time.Time
	Finished time.Time
}

func (b *BatchResult) CompletedTasks() int {
	return lo.SumBy(b.Wallets, func(w WalletResult) int { return len(w.Completed) })
}

func (b *BatchResult) FailedTasks() int {
	return lo.SumBy(b.Wallets, func(w WalletResult) int { return len(w.Failed) })
}

// SkippedWallets counts wallets whose turn was aborted before any task ran.
func (b *BatchResult) SkippedWallets() int {
	return lo.CountBy(b.Wallets, func(w WalletResult) bool {
		return w.Result == TurnInvalidKey || w.Result == TurnError
	})
}

type Orchestrator struct {
	store      Store
	resolver   Resolver
	catalogue  Catalogue
	notifier   notifier.Notifier
	classifier *executor.Classifier
	metrics    metrics.MetricsGenerator
	logger     sdklogging.Logger
	rand       *rand.Rand
	now        func() time.Time
	botName    string
}

type Option func(*Orchestrator)

// WithRand sets the random source used for wallet and task order.
func WithRand(r *rand.Rand) Option {
	return func(o *Orchestrator) { o.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithNotifier(n notifier.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithClassifier(c *executor.Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

func WithMetrics(m metrics.MetricsGenerator) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithBotName(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.botName = name
		}
	}
}

func New(store Store, resolver Resolver, catalogue Catalogue, log sdklogging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		resolver:  resolver,
		catalogue: catalogue,
		notifier:  notifier.Noop{},
		metrics:   metrics.Noop{},
		logger:    logger.EnsureLogger(log),
		rand:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now:       time.Now,
		botName:   DefaultBotName,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.classifier == nil {
		o.classifier, _ = executor.NewClassifier(nil)
	}
	return o
}

// Run processes every wallet of rc once, in random order. Per-wallet and
// per-task failures are logged and reported, never returned; the only error
// is a cancelled context, together with the partial result.
func (o *Orchestrator) Run(ctx context.Context, rc *RunContext) (*BatchResult, error) {
	// per-task summaries from InvokeTask calls sharing rc stay muted while the
	// batch reports per wallet
	release := rc.SuppressNotifications()
	defer release()

	wallets := append([]model.Wallet{}, rc.Wallets...)
	shuffle(o.rand, wallets)

	result := &BatchResult{RunID: rc.ID, Started: o.now()}
	o.metrics.IncBatchRun()
	o.logger.Info("Batch run started", "run", rc.ID, "wallets", len(wallets), "txCount", rc.CurrentTxCount())

	var runErr error
	for i, w := range wallets {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		wr := o.runWallet(ctx, rc, w, i+1, len(wallets))
		o.metrics.IncWalletTurn(wr.Result)
		result.Wallets = append(result.Wallets, wr)
	}

	result.Finished = o.now()
	o.metrics.AddBatchSeconds(result.Finished.Sub(result.Started).Seconds())

	if runErr != nil {
		o.logger.Warn("Batch run interrupted", "run", rc.ID, "visited", len(result.Wallets), "error", runErr)
		return result, runErr
	}

	o.logger.Info("Automation complete for all wallets", "run", rc.ID,
		"completed", result.CompletedTasks(), "failed", result.FailedTasks())
	o.notify(ctx, fmt.Sprintf("%s | Automation complete for all wallets. Run %s: %d wallets, %d tasks completed, %d failed, %d wallets skipped.",
		o.botName, rc.ID, len(result.Wallets), result.CompletedTasks(), result.FailedTasks(), result.SkippedWallets()))

	return result, nil
}

func (o *Orchestrator) runWallet(ctx context.Context, rc *RunContext, w model.Wallet, position, total int) WalletResult {
	wr := WalletResult{Name: w.Name, Position: position}

	identity, err := o.resolver.Identity(w.PrivateKey)
	if err != nil {
		o.logger.Warn("Skipping wallet with invalid key", "position", fmt.Sprintf("%d/%d", position, total), "error", err)
		o.notify(ctx, fmt.Sprintf("%s | Wallet %d/%d (%s) skipped: invalid private key.", o.botName, position, total, lo.Ternary(w.Name != "", w.Name, "unnamed")))
		wr.Result, wr.Err = TurnInvalidKey, err
		return wr
	}
	wr.Identity = identity
	wlog := logger.ForWallet(o.logger, identity, position, total)

	key, ledger, err := o.store.Lookup(ctx, identity)
	if err != nil {
		wlog.Error("Failed to read wallet ledger", "error", err)
		o.notify(ctx, fmt.Sprintf("%s | Wallet %d/%d (%s) skipped: ledger unreadable.", o.botName, position, total, w.Label(identity)))
		wr.Result, wr.Err = TurnError, err
		return wr
	}
	wr.TotalTasks = len(ledger.Tasks)

	if len(ledger.Tasks) == 0 {
		wlog.Info("Wallet has no tasks assigned, use the database manager to assign tasks")
		wr.Result = TurnUnassigned
		return wr
	}
	if ledger.IsCompleted() {
		wlog.Info("Wallet already completed, skipping")
		wr.Result = TurnCompleted
		return wr
	}

	pending := ledger.Pending()
	shuffle(o.rand, pending)

	started := o.now()
	sink := executor.LoggerSink(wlog)
	for _, task := range pending {
		if ctx.Err() != nil {
			break
		}

		wlog.Info("Running task", "task", task.Name)
		outcome, err := o.execute(ctx, rc, task.Name, w, identity, position, total, sink)
		switch {
		case err != nil:
			wlog.Warn("Task failed", "task", task.Name, "error", err)
			wr.Failed = append(wr.Failed, task.Name)
			continue
		case outcome != nil && !outcome.Done():
			wlog.Warn("Task reported failure", "task", task.Name, "detail", outcome.Detail)
			wr.Failed = append(wr.Failed, task.Name)
			continue
		}

		if err := o.store.UpdateTaskStatus(ctx, key, task.Name, model.StatusCompleted); err != nil {
			wlog.Error("Failed to record completed task", "task", task.Name, "error", err)
			wr.Failed = append(wr.Failed, task.Name)
			continue
		}
		wlog.Info("Task completed", "task", task.Name)
		wr.Completed = append(wr.Completed, task.Name)
	}

	wlog.Info("All pending tasks processed", "completed", len(wr.Completed), "failed", len(wr.Failed))
	wr.Result = TurnProcessed

	o.summarize(ctx, notifier.Report{
		BotName:    o.botName,
		WalletName: w.Label(identity),
		Identity:   identity,
		Position:   position,
		Total:      total,
		Completed:  wr.Completed,
		Failed:     wr.Failed,
		TotalTasks: len(ledger.Tasks),
		Settings:   reportSettings(rc),
		RunTime:    o.now().Sub(started),
		At:         o.now(),
	})
	return wr
}

// InvokeTask runs one task for every wallet of rc in file order, without
// reading or writing the ledger.
func (o *Orchestrator) InvokeTask(ctx context.Context, rc *RunContext, taskName string) (*BatchResult, error) {
	result := &BatchResult{RunID: rc.ID, Task: taskName, Started: o.now()}
	total := len(rc.Wallets)
	label := o.catalogue.Label(taskName)

	for i, w := range rc.Wallets {
		if err := ctx.Err(); err != nil {
			result.Finished = o.now()
			return result, err
		}

		position := i + 1
		wr := WalletResult{Name: w.Name, Position: position, TotalTasks: 1, Result: TurnProcessed}
		started := o.now()

		identity, err := o.resolver.Identity(w.PrivateKey)
		if err != nil {
			o.logger.Warn("Skipping wallet with invalid key", "position", fmt.Sprintf("%d/%d", position, total), "error", err)
			wr.Result, wr.Err = TurnInvalidKey, err
			wr.Failed = []string{taskName}
			result.Wallets = append(result.Wallets, wr)
			continue
		}
		wr.Identity = identity
		wlog := logger.ForWallet(o.logger, identity, position, total)

		wlog.Info("Starting " + label)
		capture := executor.NewCapture(executor.LoggerSink(wlog))
		outcome, err := o.execute(ctx, rc, taskName, w, identity, position, total, capture.Sink())

		var ok bool
		switch {
		case err != nil:
			wlog.Warn("Error in "+label, "error", err)
			wr.Err = err
		case outcome != nil:
			ok = outcome.Done()
		default:
			ok = o.classifier.Succeeded(taskName, capture.Lines())
		}

		if ok {
			wr.Completed = []string{taskName}
		} else {
			wr.Failed = []string{taskName}
		}
		wlog.Info(label+" finished", "success", ok)
		result.Wallets = append(result.Wallets, wr)

		if !rc.NotificationsSuppressed() {
			o.summarize(ctx, notifier.Report{
				BotName:    o.botName,
				WalletName: w.Label(identity),
				Identity:   identity,
				Position:   position,
				Total:      total,
				Completed:  wr.Completed,
				Failed:     wr.Failed,
				TotalTasks: 1,
				Settings:   reportSettings(rc),
				RunTime:    o.now().Sub(started),
				At:         o.now(),
			})
		}
	}

	result.Finished = o.now()
	return result, nil
}

// execute runs one task and turns a panicking executor into an error.
func (o *Orchestrator) execute(ctx context.Context, rc *RunContext, taskName string, w model.Wallet, identity string, position, total int, sink executor.Sink) (outcome *executor.Outcome, err error) {
	defer func() {
		status := "error"
		switch {
		case errors.Is(err, executor.ErrUnknownTask):
			status = "unknown"
		case err == nil && outcome == nil:
			status = "unreported"
		case err == nil:
			status = string(outcome.Status)
		}
		o.metrics.IncTaskRun(taskName, status)
	}()

	e, err := o.catalogue.Lookup(taskName)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			outcome, err = nil, fmt.Errorf("task %s panicked: %v", taskName, r)
		}
	}()

	return e.Execute(ctx, &executor.Request{
		RunID:    rc.ID,
		Task:     taskName,
		Wallet:   w,
		Identity: identity,
		Position: position,
		Total:    total,
		TxCount:  rc.CurrentTxCount(),
		Settings: rc.settingsValues(),
		Log:      sink,
	})
}

func (o *Orchestrator) notify(ctx context.Context, text string) {
	if err := o.notifier.SendMessage(ctx, text); err != nil {
		o.logger.Debug("Notification dropped", "error", err)
	}
}

func (o *Orchestrator) summarize(ctx context.Context, report notifier.Report) {
	if err := o.notifier.SendSummary(ctx, report); err != nil {
		o.logger.Debug("Wallet summary dropped", "error", err)
	}
}

func reportSettings(rc *RunContext) notifier.Settings {
	return notifier.Settings{
		Threads:    rc.Settings.Threads,
		Attempts:   rc.Settings.Attempts,
		SkipFailed: rc.Settings.SkipFailed,
	}
}
