package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind tells a completed payment from one that fell short of the order total.
type PaymentKind string

const (
	PaymentCompleted PaymentKind = "completed"
	PaymentPartial   PaymentKind = "partial"
)

// BalanceCheck is one reconciliation observation kept in the ledger.
type BalanceCheck struct {
	Address   string
	OriginID  string
	Before    AddressStatus
	After     AddressStatus
	Balance   decimal.Decimal
	Provider  string
	Success   bool
	CheckedAt time.Time
}

// PaymentRecord is a payment seen on an address bound to an order.
type PaymentRecord struct {
	OrderID    string
	Address    string
	OrderTotal decimal.Decimal
	Received   decimal.Decimal
	Kind       PaymentKind
	ObservedAt time.Time
}
