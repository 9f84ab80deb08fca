package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	balanceProviderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "balance_oracle",
		Name:      "provider_requests_total",
		Help:      "Count of balance provider requests.",
	}, []string{"provider", "status"})
	balanceProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "balance_oracle",
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of balance provider requests.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
	}, []string{"provider", "status"})
	balanceLookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "balance_oracle",
		Name:      "lookups_total",
		Help:      "Count of balance lookups after provider fallback.",
	}, []string{"status"})

	rateProviderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate_oracle",
		Name:      "provider_requests_total",
		Help:      "Count of exchange rate provider requests.",
	}, []string{"provider", "status"})
	rateProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rate_oracle",
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of exchange rate provider requests.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"provider", "status"})
	rateLookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate_oracle",
		Name:      "lookups_total",
		Help:      "Count of exchange rate lookups by mode.",
	}, []string{"mode", "status"})
)

// BalanceOracle tracks balance provider calls.
type BalanceOracle struct{}

// NewBalanceOracle creates a BalanceOracle metrics collector.
func NewBalanceOracle() *BalanceOracle {
	return &BalanceOracle{}
}

// ObserveProvider records one provider request.
func (m BalanceOracle) ObserveProvider(provider string, err error, started time.Time) {
	status := statusLabel(err)
	balanceProviderTotal.WithLabelValues(orUnknown(provider), status).Inc()
	balanceProviderDuration.WithLabelValues(orUnknown(provider), status).Observe(time.Since(started).Seconds())
}

// ObserveLookup records the outcome of a whole lookup.
func (m BalanceOracle) ObserveLookup(err error) {
	balanceLookupTotal.WithLabelValues(statusLabel(err)).Inc()
}

// RateOracle tracks exchange rate provider calls.
type RateOracle struct{}

// NewRateOracle creates a RateOracle metrics collector.
func NewRateOracle() *RateOracle {
	return &RateOracle{}
}

// ObserveProvider records one provider request.
func (m RateOracle) ObserveProvider(provider string, err error, started time.Time) {
	status := statusLabel(err)
	rateProviderTotal.WithLabelValues(orUnknown(provider), status).Inc()
	rateProviderDuration.WithLabelValues(orUnknown(provider), status).Observe(time.Since(started).Seconds())
}

// ObserveLookup records the outcome of a whole lookup.
func (m RateOracle) ObserveLookup(mode string, err error) {
	rateLookupTotal.WithLabelValues(orUnknown(mode), statusLabel(err)).Inc()
}
