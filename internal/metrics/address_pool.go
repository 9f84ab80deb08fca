package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolAllocateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "address_pool",
		Name:      "allocations_total",
		Help:      "Count of address allocations by the path that produced them.",
	}, []string{"path", "status"})
	poolAllocateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "address_pool",
		Name:      "allocation_duration_seconds",
		Help:      "Duration of address allocations.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"path", "status"})
	poolGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "address_pool",
		Name:      "generated_total",
		Help:      "Count of derived addresses by the status they were stored with.",
	}, []string{"status"})
	poolTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "address_pool",
		Name:      "transitions_total",
		Help:      "Count of committed address status transitions.",
	}, []string{"from", "to"})
	poolAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "address_pool",
		Name:      "available",
		Help:      "Addresses available for allocation at the last count.",
	}, []string{"origin"})
)

// AddressPool tracks allocation and lifecycle metrics of the address pool.
type AddressPool struct{}

// NewAddressPool creates an AddressPool metrics collector.
func NewAddressPool() *AddressPool {
	return &AddressPool{}
}

// ObserveAllocate records one allocation attempt. path is empty when nothing was committed.
func (m AddressPool) ObserveAllocate(path string, err error, started time.Time) {
	status := statusLabel(err)
	poolAllocateTotal.WithLabelValues(orUnknown(path), status).Inc()
	poolAllocateDuration.WithLabelValues(orUnknown(path), status).Observe(time.Since(started).Seconds())
}

func (m AddressPool) ObserveGenerated(status string) {
	poolGeneratedTotal.WithLabelValues(orUnknown(status)).Inc()
}

func (m AddressPool) ObserveTransition(from, to string) {
	poolTransitionsTotal.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

// ObserveAvailable records the available count for an origin fingerprint.
func (m AddressPool) ObserveAvailable(origin string, count int) {
	poolAvailable.WithLabelValues(orUnknown(origin)).Set(float64(count))
}
