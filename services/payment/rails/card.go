package rails

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// CardRail collects card payments through Stripe payment intents.
type CardRail struct {
	TTL time.Duration
}

func NewCardRail(ttl time.Duration) *CardRail {
	return &CardRail{TTL: ttl}
}

func (r *CardRail) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(math.Round(req.Amount * 100))),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Charge{
		Reference: pi.ID,
		ExpiresAt: time.Now().Add(r.TTL),
	}, nil
}

func (r *CardRail) GetStatus(ctx context.Context, reference string) (Status, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(reference, params)
	if err != nil {
		return StatusPending, err
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusConfirmed, nil
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}
