package taskstore

import "github.com/Kazuha787/Pharos-Auto-Bot/model"

// Summary counts ledgers and tasks by status.
type Summary struct {
	Ledgers          int `json:"ledgers"`
	CompletedLedgers int `json:"completedLedgers"`
	PendingLedgers   int `json:"pendingLedgers"`
	Tasks            int `json:"tasks"`
	CompletedTasks   int `json:"completedTasks"`
	PendingTasks     int `json:"pendingTasks"`
}

func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		s.Ledgers++
		if e.Ledger.IsCompleted() {
			s.CompletedLedgers++
		} else {
			s.PendingLedgers++
		}
		done := e.Ledger.CountByStatus(model.StatusCompleted)
		s.Tasks += len(e.Ledger.Tasks)
		s.CompletedTasks += done
		s.PendingTasks += len(e.Ledger.Tasks) - done
	}
	return s
}
