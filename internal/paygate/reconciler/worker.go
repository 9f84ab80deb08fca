// Package reconciler rechecks pool-held addresses, completes paid orders and keeps the pool stocked.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/breaker"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/pool"
	"github.com/goodnatureofminers/blockinsight7000-paygate/pkg/workerpool"
	"go.uber.org/zap"
)

const (
	passLight = "light"
	passFull  = "full"
)

// Report summarizes one pass.
type Report struct {
	Candidates  int
	Checked     int
	Skipped     int
	Paid        int
	Partial     int
	Retired     int
	Conflicts   int
	Notified    int
	Available   int
	Replenished int
}

type Worker struct {
	pool     Pool
	oracle   BalanceOracle
	notifier OrderNotifier
	ledger   Ledger
	metrics  Metrics
	key      pool.Key
	clock    clock.Clock
	cfg      Config
	logger   *zap.Logger
}

// NewWorker builds a Worker. key may be nil, in which case full passes skip replenishment.
// ledger may be nil.
func NewWorker(
	p Pool,
	oracle BalanceOracle,
	notifier OrderNotifier,
	ledger Ledger,
	metrics Metrics,
	key pool.Key,
	clk clock.Clock,
	cfg Config,
	logger *zap.Logger,
) (*Worker, error) {
	if p == nil {
		return nil, errors.New("address pool is required")
	}
	if oracle == nil {
		return nil, errors.New("balance oracle is required")
	}
	if notifier == nil {
		return nil, errors.New("order notifier is required")
	}
	if metrics == nil {
		return nil, errors.New("reconciler metrics is required")
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Worker{
		pool:     p,
		oracle:   oracle,
		notifier: notifier,
		ledger:   ledger,
		metrics:  metrics,
		key:      key,
		clock:    clk,
		cfg:      cfg.withDefaults(),
		logger:   logger.Named("reconciler"),
	}, nil
}

// Run performs one pass. Transitions committed before an error stay committed.
func (w *Worker) Run(ctx context.Context, fullPass bool) (report Report, err error) {
	started := time.Now()
	kind := passLight
	if fullPass {
		kind = passFull
	}
	defer func() {
		w.metrics.ObservePass(kind, err, started)
	}()

	candidates, err := w.pool.ReconcileCandidates(ctx, w.cfg.BatchLimit)
	if err != nil {
		return report, fmt.Errorf("reconcile candidates: %w", err)
	}
	report.Candidates = len(candidates)

	var mu sync.Mutex
	tally := func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		report.add(outcome)
	}

	br := breaker.New(w.cfg.FailureLimit)
	err = workerpool.Process(ctx, w.cfg.Workers, candidates, func(ctx context.Context, a model.Address) error {
		outcome, err := w.reconcile(ctx, a, br)
		if outcome != "" {
			tally(outcome)
			w.metrics.ObserveOutcome(outcome)
		}
		return err
	}, nil)
	if err != nil {
		return report, err
	}

	if !fullPass {
		return report, nil
	}

	report.Notified += w.resendNotifications(ctx)
	if err = w.replenish(ctx, &report); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Report) add(outcome string) {
	switch outcome {
	case OutcomeSkipped:
		r.Skipped++
		return
	case OutcomeConflict:
		r.Conflicts++
		return
	case OutcomePaid:
		r.Paid++
	case OutcomePartial:
		r.Partial++
	case OutcomeRetired:
		r.Retired++
	}
	r.Checked++
}

// reconcile rechecks one candidate. Only a tripped breaker or a store failure aborts the batch.
func (w *Worker) reconcile(ctx context.Context, a model.Address, br *breaker.Breaker) (string, error) {
	logger := w.logger.With(zap.String("address", a.Address), zap.String("status", string(a.Status)))

	res, err := w.oracle.GetReceived(ctx, a.Address, w.cfg.Confirmations, w.cfg.BalanceTimeout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logger.Warn("balance check failed, address left untouched", zap.Error(err), zap.Strings("replies", replies(err)))
		w.recordCheck(ctx, a, a.Status, balance.Result{}, false)
		if br.Failure() {
			return OutcomeSkipped, fmt.Errorf("reconcile batch aborted after %s: %w", a.Address, err)
		}
		return OutcomeSkipped, nil
	}
	br.Success()

	t, outcome := decide(a, res.Balance, w.clock.Now())
	stored, err := w.pool.ApplyCheck(ctx, a, t)
	if err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			logger.Debug("address changed during recheck")
			return OutcomeConflict, nil
		}
		return "", fmt.Errorf("apply check to %s: %w", a.Address, err)
	}
	w.recordCheck(ctx, a, stored.Status, res, true)

	switch outcome {
	case OutcomePaid:
		logger.Info("payment completed", zap.String("balance", res.Balance.String()), zap.String("provider", res.Provider))
		w.recordPayment(ctx, stored, model.PaymentCompleted)
		w.notify(ctx, stored)
	case OutcomePartial:
		latest, _ := stored.Metadata.Latest()
		logger.Warn("partial payment, order left open",
			zap.String("order_id", latest.OrderID),
			zap.String("order_total", latest.OrderTotal.String()),
			zap.String("balance", res.Balance.String()),
		)
		w.metrics.ObservePartialPayment()
		w.recordPayment(ctx, stored, model.PaymentPartial)
	case OutcomeRetired:
		logger.Info("funds on address without a matching order, retired", zap.String("balance", res.Balance.String()))
	}
	return outcome, nil
}

// notify reports completion of the latest binding once. On failure the address keeps its
// pending flag and the next full pass retries.
func (w *Worker) notify(ctx context.Context, a model.Address) bool {
	latest, ok := a.Metadata.Latest()
	if !ok {
		return false
	}
	logger := w.logger.With(zap.String("address", a.Address), zap.String("order_id", latest.OrderID))

	err := w.notifier.ProcessPaymentCompleted(ctx, latest.OrderID, a.TotalReceived)
	w.metrics.ObserveNotification(err)
	if err != nil {
		logger.Error("order completion not delivered", zap.Error(err))
		return false
	}

	if _, err := w.pool.MarkNotified(ctx, a, w.clock.Now()); err != nil {
		logger.Warn("order completion delivered but not recorded", zap.Error(err))
	}
	return true
}

func (w *Worker) resendNotifications(ctx context.Context) int {
	pending, err := w.pool.PendingNotifications(ctx, w.cfg.NotificationBatch)
	if err != nil {
		w.logger.Warn("pending notifications not loaded", zap.Error(err))
		return 0
	}

	sent := 0
	for _, a := range pending {
		if ctx.Err() != nil {
			break
		}
		if w.notify(ctx, a) {
			sent++
		}
	}
	return sent
}

func (w *Worker) replenish(ctx context.Context, report *Report) error {
	if w.key == nil {
		return nil
	}
	logger := w.logger.With(zap.String("origin", w.key.Fingerprint()))

	available, err := w.pool.CountAvailable(ctx, w.key)
	if err != nil {
		return fmt.Errorf("count available: %w", err)
	}
	report.Available = available
	if available >= w.cfg.LowWaterMark {
		return nil
	}

	logger.Info("pool below low-water mark, replenishing",
		zap.Int("available", available),
		zap.Int("low_water_mark", w.cfg.LowWaterMark),
	)
	for i := 0; i < w.cfg.ReplenishPerPass && available+report.Replenished < w.cfg.LowWaterMark; i++ {
		if _, err := w.pool.Replenish(ctx, w.key); err != nil {
			return fmt.Errorf("replenish: %w", err)
		}
		report.Replenished++
	}
	return nil
}

func (w *Worker) recordCheck(ctx context.Context, a model.Address, after model.AddressStatus, res balance.Result, success bool) {
	if w.ledger == nil {
		return
	}
	c := model.BalanceCheck{
		Address:   a.Address,
		OriginID:  a.OriginID,
		Before:    a.Status,
		After:     after,
		Balance:   res.Balance,
		Provider:  res.Provider,
		Success:   success,
		CheckedAt: w.clock.Now(),
	}
	if err := w.ledger.RecordCheck(ctx, c); err != nil {
		w.logger.Debug("balance check not recorded", zap.Error(err))
	}
}

func (w *Worker) recordPayment(ctx context.Context, a model.Address, kind model.PaymentKind) {
	if w.ledger == nil {
		return
	}
	latest, _ := a.Metadata.Latest()
	p := model.PaymentRecord{
		OrderID:    latest.OrderID,
		Address:    a.Address,
		OrderTotal: latest.OrderTotal,
		Received:   a.TotalReceived,
		Kind:       kind,
		ObservedAt: w.clock.Now(),
	}
	if err := w.ledger.RecordPayment(ctx, p); err != nil {
		w.logger.Debug("payment not recorded", zap.Error(err))
	}
}

func replies(err error) []string {
	var pe *balance.ProvidersError
	if errors.As(err, &pe) {
		return pe.Replies()
	}
	return nil
}
