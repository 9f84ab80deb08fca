package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidTransition = errors.New("invalid address status transition")

var allowedTransitions = map[AddressStatus][]AddressStatus{
	AddressUnknown:    {AddressUnknown, AddressUnused, AddressAssigned, AddressUsed, AddressRevalidate, AddressXUsed},
	AddressUnused:     {AddressUnused, AddressAssigned, AddressRevalidate, AddressXUsed},
	AddressAssigned:   {AddressAssigned, AddressUsed, AddressRevalidate, AddressXUsed},
	AddressRevalidate: {AddressRevalidate, AddressAssigned, AddressUsed, AddressXUsed},
}

// CanTransition reports whether an address in status s may move to to.
func (s AddressStatus) CanTransition(to AddressStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition is one committed balance observation and the status it leads to.
type Transition struct {
	To             AddressStatus
	Balance        decimal.Decimal
	CheckedAt      time.Time
	MarkLatestPaid bool
}

// PoolQuery selects allocation candidates for one origin.
type PoolQuery struct {
	OriginID     string
	ReuseExpired bool

	// AssignedBefore marks an assignment as expired when assigned_at is older.
	AssignedBefore time.Time
	// FreshAfter marks a balance check as fresh when checked_at is newer.
	FreshAfter     time.Time
}

// ReconcileQuery selects addresses due for a balance recheck.
type ReconcileQuery struct {
	// AssignedAfter keeps assigned addresses still inside their expiry window.
	AssignedAfter time.Time
	// CheckedBefore keeps addresses whose last check is older (or missing).
	CheckedBefore time.Time
	Limit         int
}
