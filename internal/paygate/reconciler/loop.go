package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/clock"
	"go.uber.org/zap"
)

const (
	DefaultLightInterval = time.Minute
	DefaultFullInterval  = 15 * time.Minute
)

// Loop runs light passes on a short schedule and a full pass whenever the full interval elapsed.
// A block signal, when set, wakes the loop early.
type Loop struct {
	runner        Runner
	clock         clock.Clock
	sleep         func(context.Context, time.Duration) error
	lightInterval time.Duration
	fullInterval  time.Duration
	blockSignal   <-chan struct{}
	logger        *zap.Logger
}

func NewLoop(runner Runner, lightInterval, fullInterval time.Duration, blockSignal <-chan struct{}, logger *zap.Logger) (*Loop, error) {
	if runner == nil {
		return nil, errors.New("reconcile runner is required")
	}
	if lightInterval <= 0 {
		lightInterval = DefaultLightInterval
	}
	if fullInterval <= 0 {
		fullInterval = DefaultFullInterval
	}
	return &Loop{
		runner:        runner,
		clock:         clock.System(),
		sleep:         clock.SleepWithContext,
		lightInterval: lightInterval,
		fullInterval:  fullInterval,
		blockSignal:   blockSignal,
		logger:        logger.Named("loop"),
	}, nil
}

// Run blocks until ctx is canceled. The first pass is a full one.
func (l *Loop) Run(ctx context.Context) error {
	var lastFull time.Time
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		now := l.clock.Now()
		full := lastFull.IsZero() || now.Sub(lastFull) >= l.fullInterval
		if full {
			lastFull = now
		}

		report, err := l.runner.Run(ctx, full)
		if err != nil && ctx.Err() == nil {
			l.logger.Warn("reconcile pass failed", zap.Bool("full", full), zap.Error(err))
		}
		if report.Candidates > 0 || full {
			l.logger.Info("reconcile pass done",
				zap.Bool("full", full),
				zap.Int("candidates", report.Candidates),
				zap.Int("checked", report.Checked),
				zap.Int("skipped", report.Skipped),
				zap.Int("paid", report.Paid),
				zap.Int("partial", report.Partial),
				zap.Int("retired", report.Retired),
				zap.Int("notified", report.Notified),
				zap.Int("available", report.Available),
				zap.Int("replenished", report.Replenished),
			)
		}

		if err := l.wait(ctx, l.lightInterval); err != nil {
			return err
		}
	}
}

func (l *Loop) wait(ctx context.Context, d time.Duration) error {
	if l.blockSignal == nil {
		return l.sleep(ctx, d)
	}
	return clock.Wait(ctx, d, l.blockSignal)
}
