package bookingRepo

import (
	"context"
	"time"

	"appointly/models"
)

// StatusUpdate carries the fields a status transition is allowed to touch.
type StatusUpdate struct {
	Status          models.BookingStatus
	CancelReason    string
	SpecialistNotes string
	ConfirmedAt     *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

// BookingRepository persists booking records. Reservation and reschedule are
// transactional: they re-check the overlap invariant and mutate in one unit.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// FindOverlapping returns bookings for the specialist in an active status
	// whose interval intersects [start, start+duration).
	FindOverlapping(ctx context.Context, specialistID string, start time.Time, durationMinutes int) ([]models.Booking, error)
	// FindActiveBetween returns the specialist's active bookings with
	// scheduled_at inside [from, to).
	FindActiveBetween(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error)
	// Reserve atomically verifies the overlap invariant and inserts the
	// booking. On conflict it returns the conflicting booking IDs and
	// persists nothing.
	Reserve(ctx context.Context, booking *models.Booking) ([]string, error)
	// Reschedule atomically moves the booking to a new start time, re-checking
	// the overlap invariant against all other active bookings. The old
	// reservation is only released if the new one is taken.
	Reschedule(ctx context.Context, bookingID string, newStart time.Time) ([]string, error)
	// TransitionStatus applies upd only when the booking's current status is
	// one of from. It reports whether the update matched.
	TransitionStatus(ctx context.Context, id string, from []models.BookingStatus, upd StatusUpdate) (bool, error)
}
