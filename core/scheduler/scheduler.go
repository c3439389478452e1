// Package scheduler repeats batch runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	gocron "github.com/go-co-op/gocron/v2"

	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/timekeeper"
)

// Runner performs one batch.
type Runner func(ctx context.Context) error

// Stats describes the work done since Start.
type Stats struct {
	Runs     int64
	Failures int64
	Busy     time.Duration
	NextRun  time.Time
}

// Scheduler runs a single job. A firing that arrives while the previous run
// is still going is rescheduled, never overlapped.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    sdklogging.Logger

	mu   sync.Mutex
	job  gocron.Job
	busy *timekeeper.Elapsing

	runs     atomic.Int64
	failures atomic.Int64
}

func New(log sdklogging.Logger) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, fmt.Errorf("failed to create cron scheduler: %w", err)
	}

	busy := timekeeper.NewElapsing()
	_ = busy.Pause()

	return &Scheduler{
		scheduler: scheduler,
		logger:    logger.EnsureLogger(log),
		busy:      busy,
	}, nil
}

// Schedule registers run under the cron expression spec. Six fields enable
// seconds. With immediate set the first run starts right away.
func (s *Scheduler) Schedule(ctx context.Context, spec string, immediate bool, run Runner) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return errors.New("empty cron expression")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil {
		return errors.New("a schedule is already registered")
	}

	options := []gocron.JobOption{gocron.WithSingletonMode(gocron.LimitModeReschedule)}
	if immediate {
		options = append(options, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	withSeconds := len(strings.Fields(spec)) == 6
	job, err := s.scheduler.NewJob(
		gocron.CronJob(spec, withSeconds),
		gocron.NewTask(func() { s.fire(ctx, run) }),
		options...,
	)
	if err != nil {
		return fmt.Errorf("failed to schedule batch run %q: %w", spec, err)
	}
	s.job = job
	return nil
}

func (s *Scheduler) fire(ctx context.Context, run Runner) {
	if ctx.Err() != nil {
		return
	}

	_ = s.busy.Resume()
	started := time.Now()
	s.logger.Info("Scheduled batch run fired")

	err := run(ctx)
	s.runs.Add(1)
	_ = s.busy.Pause()

	if err != nil {
		s.failures.Add(1)
		s.logger.Error("Scheduled batch run failed", "error", err, "took", time.Since(started))
	} else {
		s.logger.Info("Scheduled batch run finished", "took", time.Since(started))
	}

	if next, err := s.NextRun(); err == nil {
		s.logger.Info("Next batch run", "at", next.Format(time.RFC3339))
	}
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
	if next, err := s.NextRun(); err == nil {
		s.logger.Info("Cron scheduler started", "next_run", next.Format(time.RFC3339))
	}
}

// Shutdown waits for a running batch to return.
func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown cron scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) NextRun() (time.Time, error) {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()

	if job == nil {
		return time.Time{}, errors.New("nothing scheduled")
	}
	return job.NextRun()
}

func (s *Scheduler) Stats() Stats {
	st := Stats{
		Runs:     s.runs.Load(),
		Failures: s.failures.Load(),
		Busy:     s.busy.Peek(),
	}
	st.NextRun, _ = s.NextRun()
	return st
}
