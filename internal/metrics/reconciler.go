package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcilePassTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "passes_total",
		Help:      "Count of reconciliation passes.",
	}, []string{"kind", "status"})
	reconcilePassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "pass_duration_seconds",
		Help:      "Duration of reconciliation passes.",
		Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"kind", "status"})
	reconcileOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "address_outcomes_total",
		Help:      "Count of per-address reconciliation outcomes.",
	}, []string{"outcome"})
	reconcilePartialPaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "partial_payments_total",
		Help:      "Count of observed payments below the order total.",
	})
	reconcileNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "notifications_total",
		Help:      "Count of order completion notifications.",
	}, []string{"status"})
)

// Reconciler tracks reconciliation passes and their per-address outcomes.
type Reconciler struct{}

// NewReconciler creates a Reconciler metrics collector.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

func (m Reconciler) ObservePass(kind string, err error, started time.Time) {
	status := statusLabel(err)
	reconcilePassTotal.WithLabelValues(orUnknown(kind), status).Inc()
	reconcilePassDuration.WithLabelValues(orUnknown(kind), status).Observe(time.Since(started).Seconds())
}

// ObserveOutcome counts one address outcome such as paid, partial or unchanged.
func (m Reconciler) ObserveOutcome(outcome string) {
	reconcileOutcomeTotal.WithLabelValues(orUnknown(outcome)).Inc()
}

func (m Reconciler) ObservePartialPayment() {
	reconcilePartialPaymentsTotal.Inc()
}

func (m Reconciler) ObserveNotification(err error) {
	reconcileNotificationsTotal.WithLabelValues(statusLabel(err)).Inc()
}
