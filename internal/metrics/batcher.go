package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batcherFlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "batcher",
		Name:      "flushes_total",
		Help:      "Count of batch flushes.",
	}, []string{"name", "status"})
	batcherFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "batcher",
		Name:      "flush_duration_seconds",
		Help:      "Duration of batch flushes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"name", "status"})
	batcherFlushSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "batcher",
		Name:      "flush_size",
		Help:      "Items per batch flush.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"name"})
)

// Batcher tracks flushes of a named batcher.
type Batcher struct {
	name string
}

// NewBatcher creates a Batcher metrics collector.
func NewBatcher(name string) *Batcher {
	return &Batcher{name: orUnknown(name)}
}

func (m Batcher) ObserveFlush(size int, err error, started time.Time) {
	status := statusLabel(err)
	batcherFlushTotal.WithLabelValues(m.name, status).Inc()
	batcherFlushDuration.WithLabelValues(m.name, status).Observe(time.Since(started).Seconds())
	batcherFlushSize.WithLabelValues(m.name).Observe(float64(size))
}
