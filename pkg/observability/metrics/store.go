package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeOK labels commands that returned no error.
	OutcomeOK = "ok"
	// OutcomeError labels commands that returned an error.
	OutcomeError = "error"
)

// StoreMetrics counts and times store commands.
// Labels: collection, operation, outcome
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewStoreMetrics creates unregistered store collectors.
func NewStoreMetrics() *StoreMetrics {
	labels := []string{"collection", "operation", "outcome"}
	return &StoreMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mongorepo",
				Name:      "store_operations_total",
				Help:      "Total number of store commands issued by repositories",
			},
			labels,
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mongorepo",
				Name:      "store_operation_duration_seconds",
				Help:      "Store command duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			labels,
		),
	}
}

func (m *StoreMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.operations, m.duration}
}

// Observe records one store command. A nil receiver is a no-op.
func (m *StoreMetrics) Observe(collection, operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.operations.WithLabelValues(collection, operation, outcome).Inc()
	m.duration.WithLabelValues(collection, operation, outcome).Observe(elapsed.Seconds())
}

// Operations returns the command counter, labelled by collection,
// operation and outcome.
func (m *StoreMetrics) Operations() *prometheus.CounterVec {
	return m.operations
}
