// Package pool owns the persisted address pool: allocation for new orders and every status transition.
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/breaker"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	PathFast         = "fast"
	PathRevalidation = "revalidation"
	PathGeneration   = "generation"
)

var ErrInvalidBinding = model.ErrInvalidBinding

// Pool hands out clean addresses and applies balance observations to stored addresses.
type Pool struct {
	store   Store
	oracle  BalanceOracle
	metrics Metrics
	clock   clock.Clock
	cfg     Config
	logger  *zap.Logger
}

func New(store Store, oracle BalanceOracle, metrics Metrics, clk clock.Clock, cfg Config, logger *zap.Logger) (*Pool, error) {
	if store == nil {
		return nil, errors.New("address store is required")
	}
	if oracle == nil {
		return nil, errors.New("balance oracle is required")
	}
	if metrics == nil {
		return nil, errors.New("pool metrics is required")
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Pool{
		store:   store,
		oracle:  oracle,
		metrics: metrics,
		clock:   clk,
		cfg:     cfg.withDefaults(),
		logger:  logger.Named("pool"),
	}, nil
}

func (p *Pool) poolQuery(key Key, now time.Time) model.PoolQuery {
	return model.PoolQuery{
		OriginID:       key.OriginID(),
		ReuseExpired:   p.cfg.ReuseExpired,
		AssignedBefore: now.Add(-p.cfg.AssignmentTTL),
		FreshAfter:     now.Add(-p.cfg.FundsCheckTTL),
	}
}

// Allocate binds a clean address of key to the order described by binding.
// Every failure is an *model.AllocationError.
func (p *Pool) Allocate(ctx context.Context, key Key, binding model.OrderBinding) (addr model.Address, err error) {
	started := time.Now()
	path := ""
	defer func() {
		p.metrics.ObserveAllocate(path, err, started)
	}()

	if !binding.Valid() {
		return model.Address{}, model.NewAllocationError(ErrInvalidBinding)
	}

	logger := p.logger.With(zap.String("origin", key.Fingerprint()), zap.String("order_id", binding.OrderID))

	for attempt := 1; attempt <= p.cfg.MaxAllocationAttempts; attempt++ {
		candidate, via, err := p.selectCandidate(ctx, key, logger)
		if err != nil {
			logger.Warn("no address allocated", zap.Error(err))
			return model.Address{}, model.NewAllocationError(err)
		}

		committed, err := p.assign(ctx, candidate, binding)
		if err == nil {
			path = via
			logger.Info("address allocated",
				zap.String("address", committed.Address),
				zap.Uint32("index", committed.Index),
				zap.String("path", via),
			)
			return committed, nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return model.Address{}, model.NewAllocationError(err)
		}
		logger.Debug("allocation lost a race, retrying",
			zap.String("address", candidate.Address),
			zap.Int("attempt", attempt),
		)
	}

	return model.Address{}, model.NewAllocationError(
		fmt.Errorf("%d attempts: %w", p.cfg.MaxAllocationAttempts, model.ErrAllocationRace))
}

func (p *Pool) selectCandidate(ctx context.Context, key Key, logger *zap.Logger) (model.Address, string, error) {
	q := p.poolQuery(key, p.clock.Now())

	a, err := p.store.FastPathCandidate(ctx, q)
	switch {
	case err == nil:
		return a, PathFast, nil
	case !errors.Is(err, model.ErrAddressNotFound):
		return model.Address{}, "", fmt.Errorf("fast path: %w", err)
	}

	a, found, err := p.revalidate(ctx, q, logger)
	if err != nil {
		return model.Address{}, "", err
	}
	if found {
		return a, PathRevalidation, nil
	}

	a, err = p.generate(ctx, key, logger)
	if err != nil {
		return model.Address{}, "", err
	}
	return a, PathGeneration, nil
}

// revalidate rechecks zero-balance candidates whose last check is not trusted anymore.
// Addresses found with funds are retired from the pool on the way.
func (p *Pool) revalidate(ctx context.Context, q model.PoolQuery, logger *zap.Logger) (model.Address, bool, error) {
	candidates, err := p.store.RevalidationCandidates(ctx, q, p.cfg.RevalidationBatch)
	if err != nil {
		return model.Address{}, false, fmt.Errorf("revalidation candidates: %w", err)
	}

	br := breaker.New(p.cfg.FailureLimit)
	for _, c := range candidates {
		res, err := p.oracle.GetReceived(ctx, c.Address, p.cfg.AllocationConfirmations, p.cfg.BalanceTimeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.Address{}, false, ctxErr
			}
			logger.Warn("balance recheck failed", zap.String("address", c.Address), zap.Error(err))
			if br.Failure() {
				return model.Address{}, false, fmt.Errorf("revalidation: %w", err)
			}
			continue
		}
		br.Success()

		if res.Balance.IsZero() {
			return c, true, nil
		}

		to := model.AddressXUsed
		if c.Metadata.HasOrders() {
			to = model.AddressRevalidate
		}
		if _, err := p.ApplyCheck(ctx, c, model.Transition{To: to, Balance: res.Balance, CheckedAt: p.clock.Now()}); err != nil {
			if !errors.Is(err, model.ErrVersionConflict) {
				return model.Address{}, false, fmt.Errorf("retire %s: %w", c.Address, err)
			}
		}
		logger.Info("address has funds, retired from pool",
			zap.String("address", c.Address),
			zap.String("status", string(to)),
			zap.String("balance", res.Balance.String()),
		)
	}
	return model.Address{}, false, nil
}

// generate derives addresses past the highest stored index until one is confirmed clean.
// Every derived address is stored, whatever its balance turned out to be.
func (p *Pool) generate(ctx context.Context, key Key, logger *zap.Logger) (model.Address, error) {
	next, err := p.nextIndex(ctx, key)
	if err != nil {
		return model.Address{}, err
	}

	br := breaker.New(p.cfg.FailureLimit)
	for unproductive := 0; ; {
		if unproductive >= p.cfg.MaxUnproductive {
			return model.Address{}, fmt.Errorf("%d derived addresses without a clean one, last index %d: %w",
				unproductive, next, model.ErrConfigurationSuspect)
		}

		address, err := key.Derive(next, false)
		if err != nil {
			return model.Address{}, fmt.Errorf("derive index %d: %w", next, err)
		}

		a := model.Address{
			Address:       address,
			OriginID:      key.OriginID(),
			Index:         next,
			Status:        model.AddressUnknown,
			TotalReceived: decimal.Zero,
		}

		res, checkErr := p.oracle.GetReceived(ctx, address, p.cfg.AllocationConfirmations, p.cfg.BalanceTimeout)
		if checkErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.Address{}, ctxErr
			}
			logger.Warn("balance check of new address failed", zap.String("address", address), zap.Error(checkErr))
		} else {
			br.Success()
			now := p.clock.Now()
			a.CheckedAt = &now
			a.TotalReceived = model.RoundBTC(res.Balance)
			a.Status = model.AddressUnused
			if a.HasBalance() {
				a.Status = model.AddressUsed
			}
		}

		if err := p.store.Insert(ctx, a); err != nil {
			if !errors.Is(err, model.ErrVersionConflict) {
				return model.Address{}, fmt.Errorf("store generated address: %w", err)
			}
			// Another allocator took this index; continue past whatever it stored.
			unproductive++
			if next, err = p.nextIndex(ctx, key); err != nil {
				return model.Address{}, err
			}
			continue
		}
		p.metrics.ObserveGenerated(string(a.Status))

		if checkErr != nil {
			unproductive++
			if br.Failure() {
				return model.Address{}, fmt.Errorf("generation: %w", checkErr)
			}
			next++
			continue
		}
		if a.Status == model.AddressUnused {
			return a, nil
		}

		logger.Warn("newly derived address already has funds",
			zap.String("address", address),
			zap.Uint32("index", next),
			zap.String("balance", a.TotalReceived.String()),
		)
		unproductive++
		next++
	}
}

func (p *Pool) nextIndex(ctx context.Context, key Key) (uint32, error) {
	highest, ok, err := p.store.MaxIndex(ctx, key.OriginID())
	if err != nil {
		return 0, fmt.Errorf("max index: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return highest + 1, nil
}

func (p *Pool) assign(ctx context.Context, c model.Address, binding model.OrderBinding) (model.Address, error) {
	if !c.Status.CanTransition(model.AddressAssigned) {
		return model.Address{}, fmt.Errorf("assign %s from %s: %w", c.Address, c.Status, model.ErrInvalidTransition)
	}

	now := p.clock.Now()
	if binding.RequestedAt.IsZero() {
		binding.RequestedAt = now
	}

	next := c
	next.Status = model.AddressAssigned
	next.TotalReceived = decimal.Zero
	next.CheckedAt = &now
	next.AssignedAt = &now
	next.LastAssignedToIP = binding.RequestedByIP
	next.Metadata = c.Metadata.Prepend(binding)
	next.NotifyPending = false

	stored, err := p.store.CompareAndSwap(ctx, next)
	if err != nil {
		return model.Address{}, err
	}
	p.metrics.ObserveTransition(string(c.Status), string(stored.Status))
	return stored, nil
}
