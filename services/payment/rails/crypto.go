package rails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CryptoRail collects payments through a Coinbase-Commerce-style hosted
// charge API. The provider ships no Go SDK, so this adapter speaks its REST
// contract directly.
type CryptoRail struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewCryptoRail(apiKey, baseURL string) *CryptoRail {
	return &CryptoRail{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type cryptoChargeData struct {
	Code      string    `json:"code"`
	HostedURL string    `json:"hosted_url"`
	ExpiresAt time.Time `json:"expires_at"`
	Timeline  []struct {
		Status string `json:"status"`
	} `json:"timeline"`
}

type cryptoChargeEnvelope struct {
	Data cryptoChargeData `json:"data"`
}

func (r *CryptoRail) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	body := map[string]interface{}{
		"name":         "Booking " + req.BookingID,
		"description":  req.Description,
		"pricing_type": "fixed_price",
		"local_price": map[string]string{
			"amount":   fmt.Sprintf("%.2f", req.Amount),
			"currency": req.Currency,
		},
		"metadata": req.Metadata,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-CC-Api-Key", r.APIKey)

	resp, err := r.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("crypto charge request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crypto charge request returned %d", resp.StatusCode)
	}

	var envelope cryptoChargeEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}
	return &Charge{
		Reference:   envelope.Data.Code,
		RedirectURL: envelope.Data.HostedURL,
		ExpiresAt:   envelope.Data.ExpiresAt,
	}, nil
}

func (r *CryptoRail) GetStatus(ctx context.Context, reference string) (Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/charges/"+reference, nil)
	if err != nil {
		return StatusPending, err
	}
	httpReq.Header.Set("X-CC-Api-Key", r.APIKey)

	resp, err := r.HTTPClient.Do(httpReq)
	if err != nil {
		return StatusPending, fmt.Errorf("crypto status request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return StatusPending, fmt.Errorf("crypto status request returned %d", resp.StatusCode)
	}

	var envelope cryptoChargeEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return StatusPending, fmt.Errorf("failed to decode status response: %w", err)
	}
	if len(envelope.Data.Timeline) == 0 {
		return StatusPending, nil
	}
	switch envelope.Data.Timeline[len(envelope.Data.Timeline)-1].Status {
	case "COMPLETED", "RESOLVED":
		return StatusConfirmed, nil
	case "EXPIRED":
		return StatusExpired, nil
	case "CANCELED":
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}
