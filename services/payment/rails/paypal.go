package rails

import (
	"context"
	"fmt"
	"time"

	"github.com/plutov/paypal/v4"
)

// PayPalRail collects payments through PayPal orders.
type PayPalRail struct {
	client *paypal.Client
	TTL    time.Duration
}

func NewPayPalRail(clientID, secret, apiBase string, ttl time.Duration) (*PayPalRail, error) {
	client, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}
	return &PayPalRail{client: client, TTL: ttl}, nil
}

func (r *PayPalRail) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if _, err := r.client.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("paypal auth failed: %w", err)
	}

	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    fmt.Sprintf("%.2f", req.Amount),
		},
		CustomID:    req.BookingID,
		Description: req.Description,
	}}
	order, err := r.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("paypal order creation failed: %w", err)
	}

	charge := &Charge{
		Reference: order.ID,
		ExpiresAt: time.Now().Add(r.TTL),
	}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			charge.RedirectURL = link.Href
			break
		}
	}
	return charge, nil
}

func (r *PayPalRail) GetStatus(ctx context.Context, reference string) (Status, error) {
	if _, err := r.client.GetAccessToken(ctx); err != nil {
		return StatusPending, fmt.Errorf("paypal auth failed: %w", err)
	}
	order, err := r.client.GetOrder(ctx, reference)
	if err != nil {
		return StatusPending, err
	}
	switch order.Status {
	case "COMPLETED":
		return StatusConfirmed, nil
	case "VOIDED":
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}
