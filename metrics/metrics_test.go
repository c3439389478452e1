package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRunMetrics(reg)

	m.IncBatchRun()
	m.AddBatchSeconds(1.5)
	m.IncWalletTurn("processed")
	m.IncWalletTurn("processed")
	m.IncTaskRun("accountLogin", "success")
	m.IncTaskRun("accountLogin", "failure")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.numBatchRun))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.batchSeconds))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.numWallet.WithLabelValues("processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.numTaskRun.WithLabelValues("accountLogin", "failure")))

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestNoopSatisfiesGenerator(t *testing.T) {
	var m MetricsGenerator = Noop{}
	m.IncTaskRun("x", "y")
}
