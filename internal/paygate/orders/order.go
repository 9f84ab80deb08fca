// Package orders connects the payment components to the reference order store.
package orders

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/orchestrator"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/repository/gormstore"
	"github.com/shopspring/decimal"
)

// Order adapts a stored order to orchestrator.Order.
type Order struct {
	record gormstore.OrderRecord
	store  Store
}

func NewOrder(record gormstore.OrderRecord, store Store) *Order {
	return &Order{record: record, store: store}
}

func (o *Order) GetOrderID() string {
	return o.record.OrderID
}

func (o *Order) GetAmount() decimal.Decimal {
	return o.record.Amount
}

func (o *Order) GetCustomerEmail() string {
	return o.record.Email
}

// SetOrderMeta stores the bitcoin payment details on the order.
func (o *Order) SetOrderMeta(ctx context.Context, gateway string, meta orchestrator.PaymentMeta) error {
	if gateway != orchestrator.Gateway {
		return fmt.Errorf("unsupported gateway %q", gateway)
	}
	if err := o.store.SetPaymentMeta(ctx, o.record.OrderID, meta.BitcoinAddress, meta.TotalInBTC, meta.Rate); err != nil {
		return err
	}
	o.record.BitcoinAddress = meta.BitcoinAddress
	o.record.AmountBTC = meta.TotalInBTC
	o.record.Rate = meta.Rate
	return nil
}

// Record returns the order as last seen by the adapter.
func (o *Order) Record() gormstore.OrderRecord {
	return o.record
}
