// Package metrics exposes the prometheus collectors of the recommendation
// core. All collectors are optional: a nil *Metrics is a no-op everywhere.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors recorded by the engine.
type Metrics struct {
	Requests      *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	GateWait      prometheus.Histogram
	PoolSize      prometheus.Histogram
	Timeouts      prometheus.Counter
}

// New creates and registers the collectors. Pass prometheus.DefaultRegisterer
// for global registration, or a private registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vnrec",
			Name:      "requests_total",
			Help:      "Recommendation requests by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vnrec",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"stage"}),
		GateWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vnrec",
			Name:      "gate_wait_seconds",
			Help:      "Time spent queueing on the admission gate.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		PoolSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vnrec",
			Name:      "candidate_pool_size",
			Help:      "Candidate pool size after recall and filtering.",
			Buckets:   prometheus.LinearBuckets(0, 50, 10),
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vnrec",
			Name:      "timeouts_total",
			Help:      "Requests aborted by the wall-clock timeout.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.StageDuration, m.GateWait, m.PoolSize, m.Timeouts)
	}
	return m
}

// ObserveStage records one stage duration; safe on a nil receiver.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveGateWait records admission-gate queueing time.
func (m *Metrics) ObserveGateWait(d time.Duration) {
	if m == nil {
		return
	}
	m.GateWait.Observe(d.Seconds())
}

// ObservePool records the candidate pool size.
func (m *Metrics) ObservePool(n int) {
	if m == nil {
		return
	}
	m.PoolSize.Observe(float64(n))
}

// CountRequest records a request outcome ("ok", "timeout", "error", "empty").
func (m *Metrics) CountRequest(outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
}

// CountTimeout records a wall-clock abort.
func (m *Metrics) CountTimeout() {
	if m == nil {
		return
	}
	m.Timeouts.Inc()
}
