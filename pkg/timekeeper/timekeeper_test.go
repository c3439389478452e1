package timekeeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestElapsing(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	elapse := NewElapsingWithClock(clock.now)

	clock.advance(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, elapse.Report())

	assert.NoError(t, elapse.Pause())
	assert.Error(t, elapse.Pause())
	clock.advance(50 * time.Millisecond)
	assert.Zero(t, elapse.Report())
	assert.NoError(t, elapse.Resume())
	assert.Error(t, elapse.Resume())

	assert.Zero(t, elapse.Report())
}

func TestCarryon(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	elapse := NewElapsingWithClock(clock.now)

	clock.advance(10 * time.Millisecond)
	assert.NoError(t, elapse.Pause())
	assert.Equal(t, 10*time.Millisecond, elapse.Peek())

	clock.advance(10 * time.Millisecond)
	assert.NoError(t, elapse.Resume())
	clock.advance(5 * time.Millisecond)

	assert.Equal(t, 15*time.Millisecond, elapse.Peek())
	assert.Equal(t, 15*time.Millisecond, elapse.Report())
}

func TestReset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	elapse := NewElapsingWithClock(clock.now)

	clock.advance(50 * time.Millisecond)
	elapse.Reset()
	assert.Zero(t, elapse.Report())
}

func TestWallClock(t *testing.T) {
	elapse := NewElapsing()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, elapse.Report(), 5*time.Millisecond)
}
