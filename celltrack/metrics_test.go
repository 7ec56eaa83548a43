package celltrack

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountTrackerEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	seq := chainSequence(t, driftingRow()...)
	tracker := newTestTracker(t, func(cfg *Config) { cfg.Algorithm = "optimal" }, WithMetrics(metrics))
	runSequence(t, tracker, seq)

	assert.InDelta(t, 5, testutil.ToFloat64(metrics.framesTotal), eps)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.divisionsTotal), eps)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.eliminationsTotal), eps)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.lostTotal.WithLabelValues("next")), eps)
	// 4 + 4 (one of them undone by the division) + 4 + 4 accepted pairs
	assert.InDelta(t, 16, testutil.ToFloat64(metrics.matchesTotal.WithLabelValues("optimal")), eps)

	count, err := testutil.GatherAndCount(reg, "celltrack_step_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetricsAreNoop(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.incFrames()
		metrics.addMatches(MatchingAlgorithmStable, 3)
		metrics.incLost("previous")
		metrics.incRescue(RescueSwap)
		metrics.incDivision()
		metrics.incElimination()
		metrics.observeStep(time.Millisecond)
	})
}

func TestNewMetricsWithoutRegistry(t *testing.T) {
	metrics := NewMetrics(nil)
	metrics.incDivision()
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.divisionsTotal), eps)
}
