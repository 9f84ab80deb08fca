package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderExists   = errors.New("order already exists")
)

// OrderRecord is an order of the reference store host.
type OrderRecord struct {
	OrderID        string          `gorm:"primaryKey;size:64"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Currency       string          `gorm:"size:8;not null"`
	Email          string          `gorm:"size:254"`
	Description    string          `gorm:"size:512"`
	BitcoinAddress string          `gorm:"size:64;index"`
	AmountBTC      decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	Rate           decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	Paid           bool            `gorm:"not null;default:false"`
	PaidAmountBTC  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (OrderRecord) TableName() string {
	return "paygate_orders"
}

func (s *Store) CreateOrder(ctx context.Context, o OrderRecord) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("create_order", err, started)
	}()

	if err = s.db.WithContext(ctx).Create(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create order %s: %w", o.OrderID, ErrOrderExists)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (o OrderRecord, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("get_order", err, started)
	}()

	if err = s.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderRecord{}, ErrOrderNotFound
		}
		return OrderRecord{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// SetPaymentMeta records the address and BTC amount an order should be paid with.
func (s *Store) SetPaymentMeta(ctx context.Context, orderID, address string, amountBTC, rate decimal.Decimal) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("set_payment_meta", err, started)
	}()

	res := s.db.WithContext(ctx).
		Model(&OrderRecord{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"bitcoin_address": address,
			"amount_btc":      amountBTC,
			"rate":            rate,
		})
	if res.Error != nil {
		return fmt.Errorf("set payment meta: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkOrderPaid flags an order as paid. Marking an already paid order is a no-op.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID string, received decimal.Decimal, at time.Time) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("mark_order_paid", err, started)
	}()

	paidAt := at.UTC()
	res := s.db.WithContext(ctx).
		Model(&OrderRecord{}).
		Where("order_id = ? AND paid = ?", orderID, false).
		Updates(map[string]any{
			"paid":            true,
			"paid_amount_btc": received,
			"paid_at":         &paidAt,
		})
	if res.Error != nil {
		return fmt.Errorf("mark order paid: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err = s.GetOrder(ctx, orderID); err != nil {
			return err
		}
	}
	return nil
}
