package orchestrator

import (
	"errors"
	"fmt"
)

var ErrInvalidOrder = errors.New("order needs an id and a positive amount")

// ReasonRateUnavailable is reported when no exchange rate could be obtained.
// Allocation failures use the model.AllocationReason values.
const ReasonRateUnavailable = "rate_unavailable"

// PaymentUnavailableError is what a checkout sees when no payment could be prepared.
// Err carries the diagnostics and must not be shown to customers.
type PaymentUnavailableError struct {
	Reason string
	Err    error
}

func (e *PaymentUnavailableError) Error() string {
	return fmt.Sprintf("payment temporarily unavailable (%s): %v", e.Reason, e.Err)
}

func (e *PaymentUnavailableError) Unwrap() error {
	return e.Err
}

// Message is safe to show to the customer.
func (e *PaymentUnavailableError) Message() string {
	return "Bitcoin payments are temporarily unavailable, please try again later or choose another payment method."
}
