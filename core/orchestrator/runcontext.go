package orchestrator

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

// Settings are the operator knobs echoed in reports and handed to executors.
type Settings struct {
	Threads    int
	Attempts   int
	SkipFailed bool
	// Values is the raw settings table passed through to executors.
	Values map[string]any
}

// RunContext is the state of one invocation: which wallets, how many
// transactions each should attempt, and whether per-task notifications are
// currently muted.
type RunContext struct {
	ID       string
	Wallets  []model.Wallet
	TxCount  int
	Settings Settings

	mu       sync.Mutex
	suppress int
}

func NewRunContext(wallets []model.Wallet, txCount int, settings Settings) *RunContext {
	return &RunContext{
		ID:       ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		Wallets:  append([]model.Wallet{}, wallets...),
		TxCount:  txCount,
		Settings: settings,
	}
}

// SuppressNotifications mutes per-task notifications until the returned
// release func is called. Calls nest; release is safe to call twice.
func (rc *RunContext) SuppressNotifications() (release func()) {
	rc.mu.Lock()
	rc.suppress++
	rc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			rc.mu.Lock()
			rc.suppress--
			rc.mu.Unlock()
		})
	}
}

func (rc *RunContext) NotificationsSuppressed() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.suppress > 0
}

// SetTxCount changes the transaction count for later runs. Values below one
// are ignored and reported as false.
func (rc *RunContext) SetTxCount(n int) bool {
	if n <= 0 {
		return false
	}
	rc.mu.Lock()
	rc.TxCount = n
	rc.mu.Unlock()
	return true
}

// CurrentTxCount returns the transaction count, including changes made with
// SetTxCount.
func (rc *RunContext) CurrentTxCount() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.TxCount
}

func (rc *RunContext) settingsValues() map[string]any {
	values := make(map[string]any, len(rc.Settings.Values))
	for k, v := range rc.Settings.Values {
		values[k] = v
	}
	return values
}
