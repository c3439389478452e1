package timekeeper

import (
	"fmt"
	"sync"
	"time"
)

type ElapsingStatus int

const (
	Running ElapsingStatus = 1
	Pause   ElapsingStatus = 2
)

// Elapsing measures busy time. Report returns the time since the previous
// report, leaving out paused spans.
type Elapsing struct {
	mu  sync.Mutex
	now func() time.Time

	checkpoint time.Time
	carryOn    time.Duration
	status     ElapsingStatus
}

func NewElapsing() *Elapsing {
	return NewElapsingWithClock(time.Now)
}

// NewElapsingWithClock is NewElapsing reading time from now.
func NewElapsingWithClock(now func() time.Time) *Elapsing {
	return &Elapsing{
		now: now,
		// time.Now carries a monotonic reading, so deltas stay correct
		// across wall clock changes
		checkpoint: now(),
		status:     Running,
	}
}

func (e *Elapsing) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == Pause {
		return fmt.Errorf("elapsing is pause already")
	}

	e.carryOn = e.report()
	e.status = Pause
	return nil
}

func (e *Elapsing) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != Pause {
		return fmt.Errorf("elapsing is not pause")
	}

	e.checkpoint = e.now()
	e.status = Running
	return nil
}

func (e *Elapsing) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status = Running
	e.carryOn = 0
	e.checkpoint = e.now()
}

func (e *Elapsing) Report() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report()
}

// Peek is Report without moving the checkpoint.
func (e *Elapsing) Peek() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == Pause {
		return e.carryOn
	}
	return e.now().Sub(e.checkpoint) + e.carryOn
}

func (e *Elapsing) report() time.Duration {
	if e.status == Pause {
		return time.Duration(0)
	}

	now := e.now()
	total := now.Sub(e.checkpoint) + e.carryOn

	e.carryOn = time.Duration(0)
	e.checkpoint = now

	return total
}
