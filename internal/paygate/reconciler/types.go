package reconciler

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/pool"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Pool is the subset of the address pool the worker drives. Status changes only go through it.
	Pool interface {
		ReconcileCandidates(ctx context.Context, limit int) ([]model.Address, error)
		ApplyCheck(ctx context.Context, a model.Address, t model.Transition) (model.Address, error)
		MarkNotified(ctx context.Context, a model.Address, at time.Time) (model.Address, error)
		PendingNotifications(ctx context.Context, limit int) ([]model.Address, error)
		CountAvailable(ctx context.Context, key pool.Key) (int, error)
		Replenish(ctx context.Context, key pool.Key) (model.Address, error)
	}

	BalanceOracle interface {
		GetReceived(ctx context.Context, address string, minConfirmations int, timeout time.Duration) (balance.Result, error)
	}

	// OrderNotifier completes orders in the host order system.
	OrderNotifier interface {
		ProcessPaymentCompleted(ctx context.Context, orderID string, amount decimal.Decimal) error
	}

	Ledger interface {
		RecordCheck(ctx context.Context, c model.BalanceCheck) error
		RecordPayment(ctx context.Context, p model.PaymentRecord) error
	}

	Metrics interface {
		ObservePass(kind string, err error, started time.Time)
		ObserveOutcome(outcome string)
		ObservePartialPayment()
		ObserveNotification(err error)
	}

	Runner interface {
		Run(ctx context.Context, fullPass bool) (Report, error)
	}
)
