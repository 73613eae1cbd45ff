// Package metrics exposes prometheus instrumentation for the ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

// Metrics holds the ledger collectors. A nil *Metrics records nothing.
type Metrics struct {
	Recomputations    *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram
	TransactionWrites *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Recomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputations_total",
			Help:      "Balance recomputations by result.",
		}, []string{"result"}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent reading contributions and storing one balance amount.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		TransactionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_writes_total",
			Help:      "Transaction writes by operation and final state.",
		}, []string{"op", "state"}),
	}
	if reg != nil {
		reg.MustRegister(m.Recomputations, m.RecomputeDuration, m.TransactionWrites)
	}
	return m
}

// ObserveRecompute records one recomputation.
func (m *Metrics) ObserveRecompute(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Recomputations.WithLabelValues(result).Inc()
	m.RecomputeDuration.Observe(elapsed.Seconds())
}

// ObserveWrite records the final state of a write.
func (m *Metrics) ObserveWrite(op, state string) {
	if m == nil {
		return
	}
	m.TransactionWrites.WithLabelValues(op, state).Inc()
}
