// Package model holds the address-pool records shared by the payment components.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BTCPrecision is the number of decimal places kept for BTC amounts.
const BTCPrecision = 8

// AddressStatus is the lifecycle state of a derived address.
type AddressStatus string

const (
	AddressUnknown    AddressStatus = "unknown"
	AddressUnused     AddressStatus = "unused"
	AddressAssigned   AddressStatus = "assigned"
	AddressUsed       AddressStatus = "used"
	AddressRevalidate AddressStatus = "revalidate"
	AddressXUsed      AddressStatus = "xused"
)

// Terminal reports whether the address is permanently retired from the pool.
func (s AddressStatus) Terminal() bool {
	return s == AddressUsed || s == AddressXUsed
}

// Valid reports whether s is a known status.
func (s AddressStatus) Valid() bool {
	switch s {
	case AddressUnknown, AddressUnused, AddressAssigned, AddressUsed, AddressRevalidate, AddressXUsed:
		return true
	default:
		return false
	}
}

// Address is one derived receiving address and its pool state.
type Address struct {
	Address          string
	OriginID         string
	Index            uint32
	Status           AddressStatus
	TotalReceived    decimal.Decimal
	CheckedAt        *time.Time
	AssignedAt       *time.Time
	LastAssignedToIP string
	Metadata         Metadata
	// NotifyPending is set when a completed payment still has to be reported to the order system.
	NotifyPending    bool
	Version          uint64
}

// HasBalance reports whether funds were ever observed at the address.
func (a Address) HasBalance() bool {
	return a.TotalReceived.IsPositive()
}

// AssignmentExpired reports whether the last binding is older than ttl.
// Addresses that were never assigned count as expired.
func (a Address) AssignmentExpired(now time.Time, ttl time.Duration) bool {
	if a.AssignedAt == nil {
		return true
	}
	return now.Sub(*a.AssignedAt) > ttl
}

// CheckFresh reports whether the last balance check happened within ttl.
func (a Address) CheckFresh(now time.Time, ttl time.Duration) bool {
	if a.CheckedAt == nil {
		return false
	}
	return now.Sub(*a.CheckedAt) < ttl
}

// RoundBTC rounds an amount to satoshi precision.
func RoundBTC(v decimal.Decimal) decimal.Decimal {
	return v.Round(BTCPrecision)
}

// SatoshisToBTC converts an integer satoshi amount to BTC.
func SatoshisToBTC(sat int64) decimal.Decimal {
	return decimal.New(sat, -BTCPrecision)
}
