package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKeyFormat      = errors.New("invalid master public key format")
	ErrMissingMathCapability = errors.New("secp256k1 arithmetic unavailable")
	ErrOracleUnavailable     = errors.New("balance oracle unavailable")
	ErrNoCleanAddressFound   = errors.New("no clean address found")
	ErrConfigurationSuspect  = errors.New("too many unproductive address generations")
	ErrAllocationRace        = errors.New("address allocation collided with a concurrent request")
	ErrVersionConflict       = errors.New("address record changed concurrently")
	ErrAddressNotFound       = errors.New("address not found")
	ErrInvalidBinding        = errors.New("order binding needs an order id and a positive total")
)

// AllocationReason classifies why an address could not be allocated.
type AllocationReason string

const (
	ReasonOracleUnavailable    AllocationReason = "oracle_unavailable"
	ReasonNoCleanAddress       AllocationReason = "no_clean_address"
	ReasonInvalidKeyFormat     AllocationReason = "invalid_key_format"
	ReasonConfigurationSuspect AllocationReason = "configuration_suspect"
	ReasonAllocationRace       AllocationReason = "allocation_race"
	ReasonInvalidOrder         AllocationReason = "invalid_order"
)

// AllocationError is returned by the pool when no address could be bound to an order.
type AllocationError struct {
	Reason AllocationReason
	Err    error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate address (%s): %v", e.Reason, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// NewAllocationError classifies err into an AllocationError.
func NewAllocationError(err error) *AllocationError {
	var ae *AllocationError
	if errors.As(err, &ae) {
		return ae
	}

	reason := ReasonNoCleanAddress
	switch {
	case errors.Is(err, ErrOracleUnavailable):
		reason = ReasonOracleUnavailable
	case errors.Is(err, ErrInvalidKeyFormat):
		reason = ReasonInvalidKeyFormat
	case errors.Is(err, ErrConfigurationSuspect):
		reason = ReasonConfigurationSuspect
	case errors.Is(err, ErrAllocationRace):
		reason = ReasonAllocationRace
	case errors.Is(err, ErrInvalidBinding):
		reason = ReasonInvalidOrder
	}
	return &AllocationError{Reason: reason, Err: err}
}
