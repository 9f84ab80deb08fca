package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"go.uber.org/zap"
)

// ApplyCheck commits one balance observation together with the status it leads to.
// The write only lands if a is still the stored version.
func (p *Pool) ApplyCheck(ctx context.Context, a model.Address, t model.Transition) (model.Address, error) {
	if !a.Status.CanTransition(t.To) {
		return model.Address{}, fmt.Errorf("%s: %s -> %s: %w", a.Address, a.Status, t.To, model.ErrInvalidTransition)
	}

	checkedAt := t.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = p.clock.Now()
	}

	next := a
	next.Status = t.To
	next.TotalReceived = model.RoundBTC(t.Balance)
	next.CheckedAt = &checkedAt
	if t.MarkLatestPaid {
		next.Metadata = a.Metadata.WithLatest(func(b model.OrderBinding) model.OrderBinding {
			b.Paid = true
			return b
		})
		next.NotifyPending = true
	}

	stored, err := p.store.CompareAndSwap(ctx, next)
	if err != nil {
		return model.Address{}, err
	}
	if a.Status != stored.Status {
		p.metrics.ObserveTransition(string(a.Status), string(stored.Status))
	}
	return stored, nil
}

// MarkNotified records that the completion of the latest binding reached the order system.
func (p *Pool) MarkNotified(ctx context.Context, a model.Address, at time.Time) (model.Address, error) {
	next := a
	next.Metadata = a.Metadata.WithLatest(func(b model.OrderBinding) model.OrderBinding {
		b.NotifiedAt = &at
		return b
	})
	next.NotifyPending = false
	return p.store.CompareAndSwap(ctx, next)
}

// CountAvailable counts addresses of key that allocation could hand out right now.
func (p *Pool) CountAvailable(ctx context.Context, key Key) (int, error) {
	n, err := p.store.CountAvailable(ctx, p.poolQuery(key, p.clock.Now()))
	if err != nil {
		return 0, err
	}
	p.metrics.ObserveAvailable(key.Fingerprint(), n)
	return n, nil
}

// Replenish derives new addresses until one clean address is added to the pool.
func (p *Pool) Replenish(ctx context.Context, key Key) (model.Address, error) {
	logger := p.logger.With(zap.String("origin", key.Fingerprint()))
	a, err := p.generate(ctx, key, logger)
	if err != nil {
		return model.Address{}, err
	}
	logger.Debug("pool replenished", zap.String("address", a.Address), zap.Uint32("index", a.Index))
	return a, nil
}

// ReconcileCandidates returns addresses due for a recheck, least recently checked first.
func (p *Pool) ReconcileCandidates(ctx context.Context, limit int) ([]model.Address, error) {
	now := p.clock.Now()
	return p.store.ReconcileCandidates(ctx, model.ReconcileQuery{
		AssignedAfter: now.Add(-p.cfg.AssignmentTTL),
		CheckedBefore: now.Add(-p.cfg.RecheckInterval),
		Limit:         limit,
	})
}

// PendingNotifications returns completed payments that still have to be reported.
func (p *Pool) PendingNotifications(ctx context.Context, limit int) ([]model.Address, error) {
	return p.store.PendingNotifications(ctx, limit)
}
