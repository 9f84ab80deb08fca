// Package ledger buffers reconciliation observations and payments into the ClickHouse ledger.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/pkg/batcher"
	"go.uber.org/zap"
)

type Config struct {
	FlushSize     int
	FlushInterval time.Duration
	RPS           int
}

func DefaultConfig() Config {
	return Config{
		FlushSize:     500,
		FlushInterval: 5 * time.Second,
		RPS:           5,
	}
}

// Writer batches ledger rows. A nil *Writer accepts and drops everything.
type Writer struct {
	checks   *batcher.Batcher[model.BalanceCheck]
	payments *batcher.Batcher[model.PaymentRecord]
}

func NewWriter(repo Repository, cfg Config, logger *zap.Logger) (*Writer, error) {
	if repo == nil {
		return nil, errors.New("ledger repository is required")
	}
	d := DefaultConfig()
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = d.FlushSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = d.FlushInterval
	}

	logger = logger.Named("ledger")
	return &Writer{
		checks: batcher.New(logger.With(zap.String("table", "balance_checks")),
			repo.InsertBalanceChecks, cfg.FlushSize, cfg.FlushInterval, cfg.RPS).
			WithObserver(metrics.NewBatcher("balance_checks")),
		payments: batcher.New(logger.With(zap.String("table", "payments")),
			repo.InsertPayments, cfg.FlushSize, cfg.FlushInterval, cfg.RPS).
			WithObserver(metrics.NewBatcher("payments")),
	}, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	w.checks.Start(ctx)
	w.payments.Start(ctx)
}

// Stop flushes whatever is still queued.
func (w *Writer) Stop() {
	if w == nil {
		return
	}
	w.checks.Stop()
	w.payments.Stop()
}

func (w *Writer) RecordCheck(ctx context.Context, c model.BalanceCheck) error {
	if w == nil {
		return nil
	}
	return w.checks.Add(ctx, c)
}

func (w *Writer) RecordPayment(ctx context.Context, p model.PaymentRecord) error {
	if w == nil {
		return nil
	}
	return w.payments.Add(ctx, p)
}
