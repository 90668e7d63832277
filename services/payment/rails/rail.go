package rails

import (
	"context"
	"time"
)

// Status is the normalized state of an external charge.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// ChargeRequest describes the external portion of a payment.
type ChargeRequest struct {
	Amount      float64
	Currency    string
	BookingID   string
	Description string
	Metadata    map[string]string
}

// Charge is the provider's handle for a created payment request.
type Charge struct {
	Reference   string
	RedirectURL string
	ExpiresAt   time.Time
}

// Rail is one external payment provider. All rails are normalized to the
// same create/status capability; confirmation additionally arrives through
// webhooks handled upstream.
type Rail interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetStatus(ctx context.Context, reference string) (Status, error)
}
