package payment

import (
	"fmt"

	"appointly/models"
)

// InsufficientFundsError reports a wallet debit that would overdraw the
// balance. Recoverable: the caller can fall back to an external rail.
type InsufficientFundsError struct {
	Shortfall float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient wallet balance (short %.2f)", e.Shortfall)
}

// ExternalRailError reports a failed provider call while creating an external
// charge. No funds have moved; the booking stays awaiting payment and the
// caller may retry, possibly on a different rail.
type ExternalRailError struct {
	Rail models.PaymentRail
	Err  error
}

func (e *ExternalRailError) Error() string {
	return fmt.Sprintf("external rail %s failed: %v", e.Rail, e.Err)
}

func (e *ExternalRailError) Unwrap() error { return e.Err }

// PaymentExpiredError reports a confirmation arriving for an intent that
// already expired. Terminal for that intent.
type PaymentExpiredError struct {
	IntentID string
}

func (e *PaymentExpiredError) Error() string {
	return fmt.Sprintf("payment intent %s has expired", e.IntentID)
}

// DuplicateConfirmationError reports a repeated confirmation for the same
// external reference. Swallowed and logged by callers, never surfaced.
type DuplicateConfirmationError struct {
	Reference string
}

func (e *DuplicateConfirmationError) Error() string {
	return fmt.Sprintf("confirmation for reference %s already applied", e.Reference)
}
