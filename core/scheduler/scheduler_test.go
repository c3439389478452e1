package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/testutil"
)

func TestScheduleRunsWithoutOverlap(t *testing.T) {
	s, err := New(testutil.GetLogger())
	require.NoError(t, err)

	var running, overlapped, calls atomic.Int32
	err = s.Schedule(context.Background(), "* * * * * *", true, func(ctx context.Context) error {
		if running.Add(1) > 1 {
			overlapped.Add(1)
		}
		defer running.Add(-1)
		calls.Add(1)
		time.Sleep(1500 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 6*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Shutdown())

	assert.Zero(t, overlapped.Load())
	st := s.Stats()
	assert.GreaterOrEqual(t, st.Runs, int64(2))
	assert.Zero(t, st.Failures)
	assert.GreaterOrEqual(t, st.Busy, 2*time.Second)
}

func TestScheduleCountsFailures(t *testing.T) {
	s, err := New(testutil.GetLogger())
	require.NoError(t, err)

	require.NoError(t, s.Schedule(context.Background(), "0 0 1 1 *", true, func(ctx context.Context) error {
		return errors.New("boom")
	}))
	s.Start()
	assert.Eventually(t, func() bool { return s.Stats().Failures == 1 }, 3*time.Second, 20*time.Millisecond)

	next, err := s.NextRun()
	require.NoError(t, err)
	assert.Equal(t, time.January, next.Month())
	require.NoError(t, s.Shutdown())
}

func TestScheduleRejects(t *testing.T) {
	s, err := New(testutil.GetLogger())
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	noop := func(context.Context) error { return nil }
	assert.Error(t, s.Schedule(context.Background(), "  ", false, noop))
	assert.Error(t, s.Schedule(context.Background(), "not a cron", false, noop))

	_, err = s.NextRun()
	assert.Error(t, err)

	require.NoError(t, s.Schedule(context.Background(), "*/5 * * * *", false, noop))
	assert.Error(t, s.Schedule(context.Background(), "*/5 * * * *", false, noop))
}
