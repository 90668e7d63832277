package paymentRepo

import (
	"context"
	"time"

	"appointly/models"
)

// PaymentIntentRepository persists payment intents. Completion by external
// reference is a conditional update so duplicate webhook deliveries cannot
// transition an intent twice.
type PaymentIntentRepository interface {
	Insert(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*models.PaymentIntent, error)
	GetByReference(ctx context.Context, ref string) (*models.PaymentIntent, error)
	// ActiveForBooking returns the booking's non-terminal intent, or nil.
	ActiveForBooking(ctx context.Context, bookingID string) (*models.PaymentIntent, error)
	// CompletedForBooking returns the booking's COMPLETED intent, or nil.
	CompletedForBooking(ctx context.Context, bookingID string) (*models.PaymentIntent, error)
	// CompleteByReference flips AWAITING_CONFIRMATION to COMPLETED for the
	// given external reference. It returns the intent and whether this call
	// performed the transition.
	CompleteByReference(ctx context.Context, ref string) (*models.PaymentIntent, bool, error)
	// TransitionStatus applies to only when the current status is one of from.
	TransitionStatus(ctx context.Context, id string, from []models.PaymentIntentStatus, to models.PaymentIntentStatus) (bool, error)
	// FindExpired returns non-terminal intents whose expires_at has passed.
	FindExpired(ctx context.Context, now time.Time) ([]models.PaymentIntent, error)
}
