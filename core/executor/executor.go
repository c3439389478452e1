// Package executor defines the contract between the batch runner and the
// task implementations it drives, plus a catalogue and a script host for them.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

// ErrUnknownTask is returned when a task name has no registered executor.
var ErrUnknownTask = errors.New("unknown task")

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	// OutcomeSkipped means there was nothing left to do, e.g. the faucet is
	// on cooldown. It counts as done.
	OutcomeSkipped OutcomeStatus = "skipped"
)

func (s OutcomeStatus) Valid() bool {
	switch s {
	case OutcomeSuccess, OutcomeFailure, OutcomeSkipped:
		return true
	}
	return false
}

// Outcome is what an executor reports for one run of a task.
type Outcome struct {
	Status OutcomeStatus `mapstructure:"status" json:"status"`
	Detail string        `mapstructure:"detail" json:"detail,omitempty"`
}

func Success(detail string) *Outcome { return &Outcome{Status: OutcomeSuccess, Detail: detail} }
func Failure(detail string) *Outcome { return &Outcome{Status: OutcomeFailure, Detail: detail} }
func Skipped(detail string) *Outcome { return &Outcome{Status: OutcomeSkipped, Detail: detail} }

// Done reports whether the task may be recorded as completed.
func (o *Outcome) Done() bool {
	return o != nil && (o.Status == OutcomeSuccess || o.Status == OutcomeSkipped)
}

// Request carries everything an executor may need for one wallet.
type Request struct {
	RunID    string
	Task     string
	Wallet   model.Wallet
	Identity string
	// Position is 1-based within the run, Total is the number of wallets.
	Position int
	Total    int
	TxCount  int
	Settings map[string]any
	Log      Sink
}

func (r *Request) log(line string) {
	if r.Log != nil {
		r.Log(line)
	}
}

// Logf writes one formatted line to the request sink.
func (r *Request) Logf(format string, args ...any) {
	r.log(fmt.Sprintf(format, args...))
}

// Executor performs one task for one wallet. A nil outcome with a nil error
// means the executor has no opinion; callers decide how to classify it.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Outcome, error)
}

// Func adapts a plain function to Executor.
type Func func(ctx context.Context, req *Request) (*Outcome, error)

func (f Func) Execute(ctx context.Context, req *Request) (*Outcome, error) {
	return f(ctx, req)
}
