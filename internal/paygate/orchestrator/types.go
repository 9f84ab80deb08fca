package orchestrator

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/rate"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/pool"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Order is the host order the payment is prepared for.
	Order interface {
		GetOrderID() string
		GetAmount() decimal.Decimal
		GetCustomerEmail() string
		SetOrderMeta(ctx context.Context, gateway string, meta PaymentMeta) error
	}

	Allocator interface {
		Allocate(ctx context.Context, key pool.Key, binding model.OrderBinding) (model.Address, error)
	}

	RateOracle interface {
		GetRate(ctx context.Context, currency string, mode rate.Mode) (decimal.Decimal, error)
	}
)
