package pool

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Store interface {
		FastPathCandidate(ctx context.Context, q model.PoolQuery) (model.Address, error)
		RevalidationCandidates(ctx context.Context, q model.PoolQuery, limit int) ([]model.Address, error)
		MaxIndex(ctx context.Context, originID string) (uint32, bool, error)
		Insert(ctx context.Context, a model.Address) error
		CompareAndSwap(ctx context.Context, next model.Address) (model.Address, error)
		ReconcileCandidates(ctx context.Context, q model.ReconcileQuery) ([]model.Address, error)
		CountAvailable(ctx context.Context, q model.PoolQuery) (int, error)
		PendingNotifications(ctx context.Context, limit int) ([]model.Address, error)
	}

	BalanceOracle interface {
		GetReceived(ctx context.Context, address string, minConfirmations int, timeout time.Duration) (balance.Result, error)
	}

	// Key is a parsed master public key.
	Key interface {
		OriginID() string
		Fingerprint() string
		Derive(index uint32, change bool) (string, error)
	}

	Metrics interface {
		ObserveAllocate(path string, err error, started time.Time)
		ObserveGenerated(status string)
		ObserveTransition(from, to string)
		ObserveAvailable(origin string, count int)
	}
)
