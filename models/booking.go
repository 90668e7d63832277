package models

import "time"

// BookingStatus is the lifecycle state of a booking record.
type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingPending        BookingStatus = "PENDING"
	BookingConfirmed      BookingStatus = "CONFIRMED"
	BookingInProgress     BookingStatus = "IN_PROGRESS"
	BookingCompleted      BookingStatus = "COMPLETED"
	BookingCancelled      BookingStatus = "CANCELLED"
	BookingNoShow         BookingStatus = "NO_SHOW"
	BookingRejected       BookingStatus = "REJECTED"
)

// Cancellation reasons recorded on the booking.
const (
	CancelReasonUser           = "USER_CANCELLED"
	CancelReasonPaymentTimeout = "PAYMENT_TIMEOUT"
	CancelReasonPaymentFailed  = "PAYMENT_FAILED"
)

// ActiveBookingStatuses are the statuses that hold a slot reservation.
// Bookings in any of these states participate in the overlap invariant.
var ActiveBookingStatuses = []BookingStatus{
	BookingPendingPayment,
	BookingPending,
	BookingConfirmed,
	BookingInProgress,
}

// Terminal reports whether the status permits no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingNoShow, BookingRejected:
		return true
	}
	return false
}

// Booking represents a customer's appointment with a specialist.
// Bookings are never physically deleted; cancellation is a status change,
// preserving audit and payment history.
type Booking struct {
	ID              string        `bson:"id" json:"id"`
	CustomerID      string        `bson:"customer_id" json:"customer_id"`
	SpecialistID    string        `bson:"specialist_id" json:"specialist_id"`
	ServiceID       string        `bson:"service_id" json:"service_id"`
	ScheduledAt     time.Time     `bson:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int           `bson:"duration_minutes" json:"duration_minutes"`
	Status          BookingStatus `bson:"status" json:"status"`
	TotalAmount     float64       `bson:"total_amount" json:"total_amount"`
	Currency        string        `bson:"currency" json:"currency"`
	CustomerNotes   string        `bson:"customer_notes,omitempty" json:"customer_notes,omitempty"`
	SpecialistNotes string        `bson:"specialist_notes,omitempty" json:"specialist_notes,omitempty"`
	CancelReason    string        `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	ConfirmedAt     *time.Time    `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	CompletedAt     *time.Time    `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CancelledAt     *time.Time    `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

// EndsAt returns the exclusive end of the booking interval.
func (b Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Overlaps reports whether [start, start+duration) intersects this booking's
// interval. Both intervals are half-open.
func (b Booking) Overlaps(start time.Time, durationMinutes int) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return b.ScheduledAt.Before(end) && start.Before(b.EndsAt())
}
