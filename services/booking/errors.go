package booking

import (
	"fmt"
	"strings"

	"appointly/models"
)

// ConflictError reports a lost slot race: another active booking already
// occupies part of the requested interval. Recoverable: the caller should
// recompute availability and offer the next free slot.
type ConflictError struct {
	ConflictingBookingIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot already booked (conflicts: %s)", strings.Join(e.ConflictingBookingIDs, ", "))
}

// InvalidTransitionError reports a state-machine violation. Surfaced as a
// client error, never retried.
type InvalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition from %s to %s", e.From, e.To)
}

// PolicyError reports a guard-condition rejection (outside working hours,
// start before scheduled time, and the like).
type PolicyError struct {
	Code    string
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewPolicyError(code, msg string) error {
	return &PolicyError{Code: code, Message: msg}
}
