package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	addressStoreRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "address_store",
		Name:      "operations_total",
		Help:      "Count of address store operations.",
	}, []string{"operation", "status"})
	addressStoreRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "address_store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of address store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

// AddressStore tracks metrics for the persisted address pool.
type AddressStore struct{}

// NewAddressStore creates an AddressStore metrics collector.
func NewAddressStore() *AddressStore {
	return &AddressStore{}
}

// Observe records duration and status of a store operation.
func (m AddressStore) Observe(operation string, err error, started time.Time) {
	status := statusLabel(err)
	addressStoreRequestsTotal.WithLabelValues(operation, status).Inc()
	addressStoreRequestDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
