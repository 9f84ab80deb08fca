package orders

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/repository/gormstore"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Store interface {
		CreateOrder(ctx context.Context, o gormstore.OrderRecord) error
		GetOrder(ctx context.Context, orderID string) (gormstore.OrderRecord, error)
		SetPaymentMeta(ctx context.Context, orderID, address string, amountBTC, rate decimal.Decimal) error
		MarkOrderPaid(ctx context.Context, orderID string, received decimal.Decimal, at time.Time) error
	}
)
