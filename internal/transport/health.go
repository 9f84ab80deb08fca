package transport

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/clock"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthReporter mirrors payment readiness into the gRPC health service.
type HealthReporter struct {
	payments Payments
	server   *health.Server
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthReporter(payments Payments, server *health.Server, interval time.Duration, logger *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = time.Minute
	}
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{
		payments: payments,
		server:   server,
		interval: interval,
		logger:   logger.Named("health"),
	}
}

// Run probes readiness until ctx is canceled.
func (h *HealthReporter) Run(ctx context.Context) {
	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := h.Probe(ctx)
		if status != last {
			h.logger.Info("serving status changed", zap.Stringer("status", status))
			last = status
		}
		if err := clock.SleepWithContext(ctx, h.interval); err != nil {
			return
		}
	}
}

// Probe runs one readiness check and publishes its result.
func (h *HealthReporter) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.payments.Ready(ctx); err != nil {
		if ctx.Err() != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		h.logger.Warn("readiness check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	return status
}
