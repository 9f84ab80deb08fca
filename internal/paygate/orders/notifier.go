package orders

import (
	"context"
	"errors"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/clock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier marks orders paid once the reconciler sees them fully funded.
type Notifier struct {
	store  Store
	clock  clock.Clock
	logger *zap.Logger
}

func NewNotifier(store Store, clk clock.Clock, logger *zap.Logger) (*Notifier, error) {
	if store == nil {
		return nil, errors.New("order store is required")
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Notifier{store: store, clock: clk, logger: logger.Named("order_notifier")}, nil
}

// ProcessPaymentCompleted is idempotent: an order already marked paid stays unchanged.
func (n *Notifier) ProcessPaymentCompleted(ctx context.Context, orderID string, amount decimal.Decimal) error {
	if err := n.store.MarkOrderPaid(ctx, orderID, amount, n.clock.Now()); err != nil {
		return err
	}
	n.logger.Info("order paid", zap.String("order_id", orderID), zap.String("amount_btc", amount.String()))
	return nil
}
