package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxOrderBindings caps how many bindings an address remembers.
const MaxOrderBindings = 10

// OrderBinding links an address to one order placed on it.
type OrderBinding struct {
	OrderID       string          `json:"order_id"`
	OrderTotal    decimal.Decimal `json:"order_total"`
	Currency      string          `json:"currency,omitempty"`
	RequestedAt   time.Time       `json:"requested_at"`
	RequestedByIP string          `json:"requested_by_ip,omitempty"`
	Paid          bool            `json:"paid,omitempty"`
	NotifiedAt    *time.Time      `json:"notified_at,omitempty"`
}

// Valid reports whether the binding identifies a real order with a positive total.
func (b OrderBinding) Valid() bool {
	return b.OrderID != "" && b.OrderTotal.IsPositive()
}

// Metadata is the list of bindings on an address, most recent first.
type Metadata []OrderBinding

// Prepend returns a copy with b in front, dropping the oldest entries past MaxOrderBindings.
func (m Metadata) Prepend(b OrderBinding) Metadata {
	n := len(m) + 1
	if n > MaxOrderBindings {
		n = MaxOrderBindings
	}
	out := make(Metadata, 0, n)
	out = append(out, b)
	for _, existing := range m {
		if len(out) == n {
			break
		}
		out = append(out, existing)
	}
	return out
}

// Latest returns the most recent binding.
func (m Metadata) Latest() (OrderBinding, bool) {
	if len(m) == 0 {
		return OrderBinding{}, false
	}
	return m[0], true
}

// HasOrders reports whether any order was ever bound.
func (m Metadata) HasOrders() bool {
	return len(m) > 0
}

// WithLatest returns a copy whose first entry is replaced by fn applied to it.
func (m Metadata) WithLatest(fn func(OrderBinding) OrderBinding) Metadata {
	if len(m) == 0 {
		return m
	}
	out := make(Metadata, len(m))
	copy(out, m)
	out[0] = fn(out[0])
	return out
}

// Value stores metadata as a JSON document.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(raw), nil
}

// Scan reads metadata from a JSON column. Unreadable documents are treated as empty.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("metadata: unsupported column type")
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}

	var out Metadata
	if err := json.Unmarshal(raw, &out); err != nil {
		*m = nil
		return nil
	}
	*m = out
	return nil
}
