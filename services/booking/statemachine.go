package booking

import "appointly/models"

// transitions is the authoritative booking lifecycle table. A requested
// transition not listed here is rejected; requesting the current state again
// is treated as an idempotent no-op so client retries stay safe.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPendingPayment: {
		models.BookingPending,
		models.BookingCancelled,
	},
	models.BookingPending: {
		models.BookingConfirmed,
		models.BookingCancelled,
		models.BookingRejected,
	},
	models.BookingConfirmed: {
		models.BookingInProgress,
		models.BookingCancelled,
		models.BookingNoShow,
	},
	models.BookingInProgress: {
		models.BookingCompleted,
	},
}

// ValidateTransition checks from -> to against the lifecycle table.
// It returns noop=true when the booking is already in the requested state.
func ValidateTransition(from, to models.BookingStatus) (noop bool, err error) {
	if from == to {
		return true, nil
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return false, nil
		}
	}
	return false, &InvalidTransitionError{From: from, To: to}
}
