package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsGenerator interface {
	IncBatchRun()
	AddBatchSeconds(float64)

	// IncWalletTurn counts wallet turns by how they ended: processed,
	// completed (nothing pending), unassigned, invalid_key or error.
	IncWalletTurn(string)

	IncTaskRun(task, status string)
}

// RunMetrics holds the counters of the batch runner
type RunMetrics struct {
	numBatchRun  prometheus.Counter
	batchSeconds prometheus.Counter
	numWallet    *prometheus.CounterVec
	numTaskRun   *prometheus.CounterVec
}

const pharosNamespace = "pharos"

func NewRunMetrics(reg prometheus.Registerer) *RunMetrics {
	return &RunMetrics{
		numBatchRun: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: pharosNamespace,
				Name:      "num_batch_run_total",
				Help:      "The number of batch runs started",
			}),

		batchSeconds: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: pharosNamespace,
				Name:      "batch_seconds_total",
				Help:      "Wall time spent inside batch runs",
			}),

		numWallet: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: pharosNamespace,
				Name:      "num_wallet_turn_total",
				Help:      "The number of wallet turns by result.",
			}, []string{"result"}),

		numTaskRun: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: pharosNamespace,
				Name:      "num_task_run_total",
				Help:      "The number of task executions by task and status. A steady failure count for one task usually means its script is broken",
			}, []string{"task", "status"}),
	}
}

func (m *RunMetrics) IncBatchRun() {
	m.numBatchRun.Inc()
}

func (m *RunMetrics) AddBatchSeconds(total float64) {
	m.batchSeconds.Add(total)
}

func (m *RunMetrics) IncWalletTurn(result string) {
	m.numWallet.WithLabelValues(result).Inc()
}

func (m *RunMetrics) IncTaskRun(task, status string) {
	m.numTaskRun.WithLabelValues(task, status).Inc()
}

// Noop discards everything
type Noop struct{}

func (Noop) IncBatchRun()               {}
func (Noop) AddBatchSeconds(float64)    {}
func (Noop) IncWalletTurn(string)       {}
func (Noop) IncTaskRun(string, string) {}
