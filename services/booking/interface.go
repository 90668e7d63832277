package booking

import (
	"context"
	"time"

	"appointly/models"
)

// BookingService drives the booking lifecycle end to end: slot reservation,
// payment kickoff, specialist workflow, cancellation and refunds.
type BookingService interface {
	// CreateBooking validates the requested slot, reserves it atomically and
	// opens a payment intent for the total. The booking starts in
	// PENDING_PAYMENT; a wallet-only payment advances it synchronously.
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, *models.PaymentIntent, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	// MarkPaid advances PENDING_PAYMENT to PENDING once the intent completes,
	// auto-confirming when the specialist has opted in.
	MarkPaid(ctx context.Context, bookingID string) error
	Confirm(ctx context.Context, bookingID string) error
	// Reject declines a pending booking and refunds the customer in full.
	Reject(ctx context.Context, bookingID, reason string) error
	// Cancel cancels an active booking before its start time. Inside the
	// cancellation window part of the paid amount is forfeited to the
	// specialist; outside it the refund is full.
	Cancel(ctx context.Context, bookingID string) error
	// Reschedule moves a paid booking (PENDING or CONFIRMED) to a new slot,
	// releasing the old one only if the new reservation succeeds.
	Reschedule(ctx context.Context, bookingID, date string, startMinute int) (*models.Booking, error)
	Start(ctx context.Context, bookingID string) error
	// Complete finishes an in-progress booking and accrues the specialist's
	// payout net of commission.
	Complete(ctx context.Context, bookingID, specialistNotes string) error
	MarkNoShow(ctx context.Context, bookingID string) error
	// CancelForPaymentTimeout releases a reservation whose payment never
	// arrived. Driven by the payment expiry sweep.
	CancelForPaymentTimeout(ctx context.Context, bookingID string) error
}

// CreateBookingRequest is the input to CreateBooking. Date is "2006-01-02";
// StartMinute counts from midnight in the specialist's local day.
type CreateBookingRequest struct {
	CustomerID     string             `json:"customer_id" binding:"required"`
	SpecialistID   string             `json:"specialist_id" binding:"required"`
	ServiceID      string             `json:"service_id" binding:"required"`
	Date           string             `json:"date" binding:"required"`
	StartMinute    int                `json:"start_minute"`
	UseWalletFirst bool               `json:"use_wallet_first"`
	PreferredRail  models.PaymentRail `json:"preferred_rail"`
	CustomerNotes  string             `json:"customer_notes"`
}

// Policy bundles the tunable business rules the service enforces.
type Policy struct {
	// CancellationWindow is how close to the start time a cancellation stops
	// being free.
	CancellationWindow time.Duration
	// ForfeitureSplit is the fraction of the paid amount retained for the
	// specialist on a late cancellation or no-show.
	ForfeitureSplit float64
	// CommissionRate is the platform's cut of a completed booking.
	CommissionRate float64
}

// WaitlistHook receives slot lifecycle events. Implemented by the waitlist
// service and wired after construction; a nil hook disables waitlisting.
type WaitlistHook interface {
	// SlotFreed announces that the interval starting at startMinute on date is
	// bookable again.
	SlotFreed(ctx context.Context, specialistID, date string, startMinute, durationMinutes int)
	// BookingCreated lets the waitlist convert a notified entry whose offered
	// slot this booking took.
	BookingCreated(ctx context.Context, customerID, specialistID, date string, startMinute int)
}

// ReservationLocker serializes reservation attempts per specialist.
type ReservationLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
