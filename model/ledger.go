package model

import (
	"github.com/samber/lo"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the two ledger states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// TaskRecord is one assigned task of a wallet. Index is a 1-based display
// ordinal fixed at assignment time; it has no say in execution order.
type TaskRecord struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Index  int    `json:"index"`
}

// WalletLedger holds the assigned tasks of one wallet identity.
//
// Status is StatusCompleted if and only if the ledger has at least one task
// and all of them are completed. Call Refresh after touching Tasks.
type WalletLedger struct {
	Tasks        []TaskRecord `json:"tasks"`
	Status       Status       `json:"status"`
	WalletNumber int          `json:"walletNumber,omitempty"`
	Name         string       `json:"name,omitempty"`
	Token        string       `json:"token,omitempty"`
}

// NewTaskRecords builds a pending record for each name, indexed in order.
func NewTaskRecords(names []string) []TaskRecord {
	return lo.Map(names, func(name string, i int) TaskRecord {
		return TaskRecord{Name: name, Status: StatusPending, Index: i + 1}
	})
}

// EmptyLedger is what a lookup returns for a wallet that has nothing assigned.
func EmptyLedger() *WalletLedger {
	return &WalletLedger{Tasks: []TaskRecord{}, Status: StatusPending}
}

// Refresh re-establishes the completion invariant and returns the new status.
func (l *WalletLedger) Refresh() Status {
	if l.AllCompleted() {
		l.Status = StatusCompleted
	} else {
		l.Status = StatusPending
	}
	return l.Status
}

func (l *WalletLedger) AllCompleted() bool {
	if len(l.Tasks) == 0 {
		return false
	}
	return lo.EveryBy(l.Tasks, func(t TaskRecord) bool {
		return t.Status == StatusCompleted
	})
}

func (l *WalletLedger) IsCompleted() bool {
	return l.Status == StatusCompleted
}

// Pending returns copies of the records still waiting to run, in ledger order.
func (l *WalletLedger) Pending() []TaskRecord {
	return lo.Filter(l.Tasks, func(t TaskRecord, _ int) bool {
		return t.Status == StatusPending
	})
}

// Find returns a pointer into Tasks for the named record, or nil.
func (l *WalletLedger) Find(name string) *TaskRecord {
	for i := range l.Tasks {
		if l.Tasks[i].Name == name {
			return &l.Tasks[i]
		}
	}
	return nil
}

func (l *WalletLedger) CountByStatus(status Status) int {
	return lo.CountBy(l.Tasks, func(t TaskRecord) bool {
		return t.Status == status
	})
}

// Clone returns a deep copy so callers never alias store internals.
func (l *WalletLedger) Clone() *WalletLedger {
	if l == nil {
		return nil
	}
	c := *l
	c.Tasks = append([]TaskRecord{}, l.Tasks...)
	return &c
}
