package celltrack

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes tracker counters. Nil *Metrics is valid and records nothing.
type Metrics struct {
	// framesTotal counts finalized frames
	framesTotal prometheus.Counter
	// matchesTotal counts accepted pairs by matching algorithm
	matchesTotal *prometheus.CounterVec
	// lostTotal counts cells lost to one side. Labels: side (previous, next)
	lostTotal *prometheus.CounterVec
	// rescuesTotal counts recovered correspondences. Labels: kind (swap, neighborhood)
	rescuesTotal *prometheus.CounterVec
	// divisionsTotal counts recorded divisions
	divisionsTotal prometheus.Counter
	// eliminationsTotal counts recorded eliminations
	eliminationsTotal prometheus.Counter
	// stepDuration tracks time of one frame transition
	stepDuration prometheus.Histogram
}

// NewMetrics registers tracker metrics in the registerer. Nil registerer means no registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "celltrack",
			Name:      "frames_total",
			Help:      "Total finalized frames",
		}),
		matchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "celltrack",
			Name:      "matches_total",
			Help:      "Total accepted predecessor/successor pairs by matching algorithm",
		}, []string{"algorithm"}),
		lostTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "celltrack",
			Name:      "lost_total",
			Help:      "Total cells without correspondence by side",
		}, []string{"side"}),
		rescuesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "celltrack",
			Name:      "rescues_total",
			Help:      "Total recovered correspondences by kind",
		}, []string{"kind"}),
		divisionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "celltrack",
			Name:      "divisions_total",
			Help:      "Total detected divisions",
		}),
		eliminationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "celltrack",
			Name:      "eliminations_total",
			Help:      "Total detected eliminations",
		}),
		stepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "celltrack",
			Name:      "step_duration_seconds",
			Help:      "Frame transition duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}),
	}
}

func (m *Metrics) incFrames() {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
}

func (m *Metrics) addMatches(algorithm MatchingAlgorithm, n int) {
	if m == nil {
		return
	}
	m.matchesTotal.WithLabelValues(algorithm.String()).Add(float64(n))
}

func (m *Metrics) incLost(side string) {
	if m == nil {
		return
	}
	m.lostTotal.WithLabelValues(side).Inc()
}

func (m *Metrics) incRescue(kind RescueKind) {
	if m == nil {
		return
	}
	m.rescuesTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) incDivision() {
	if m == nil {
		return
	}
	m.divisionsTotal.Inc()
}

func (m *Metrics) incElimination() {
	if m == nil {
		return
	}
	m.eliminationsTotal.Inc()
}

func (m *Metrics) observeStep(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.Observe(elapsed.Seconds())
}
