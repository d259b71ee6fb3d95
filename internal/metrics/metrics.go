// Package metrics exposes auth counters on a caller-owned registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

type Metrics struct {
	events     *prometheus.CounterVec
	hashTime   prometheus.Histogram
	verifyTime prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridehail",
			Name:      "auth_events_total",
			Help:      "Authentication events by action and outcome.",
		}, []string{"action", "outcome"}),
		hashTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ridehail",
			Name:      "password_hash_seconds",
			Help:      "Time spent hashing passwords.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		verifyTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ridehail",
			Name:      "password_verify_seconds",
			Help:      "Time spent checking login passwords, including unknown emails.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.hashTime, m.verifyTime)
	}
	return m
}

// Event is safe to call on a nil *Metrics.
func (m *Metrics) Event(action, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveHash(d time.Duration) {
	if m == nil {
		return
	}
	m.hashTime.Observe(d.Seconds())
}

func (m *Metrics) ObserveVerify(d time.Duration) {
	if m == nil {
		return
	}
	m.verifyTime.Observe(d.Seconds())
}
