package models

import "time"

// PaymentRail identifies how the external portion of a payment is collected.
type PaymentRail string

const (
	RailAuto       PaymentRail = "AUTO"
	RailWalletOnly PaymentRail = "WALLET_ONLY"
	RailCrypto     PaymentRail = "CRYPTO"
	RailPayPal     PaymentRail = "PAYPAL"
	RailCard       PaymentRail = "CARD"
)

// PaymentIntentStatus is the lifecycle state of a payment intent.
type PaymentIntentStatus string

const (
	IntentPending              PaymentIntentStatus = "PENDING"
	IntentAwaitingConfirmation PaymentIntentStatus = "AWAITING_CONFIRMATION"
	IntentCompleted            PaymentIntentStatus = "COMPLETED"
	IntentExpired              PaymentIntentStatus = "EXPIRED"
	IntentFailed               PaymentIntentStatus = "FAILED"
)

// Terminal reports whether the intent can no longer change state.
func (s PaymentIntentStatus) Terminal() bool {
	switch s {
	case IntentCompleted, IntentExpired, IntentFailed:
		return true
	}
	return false
}

// PaymentIntent tracks how a single booking's total is covered across the
// wallet balance and at most one external rail. A booking owns at most one
// non-terminal intent at a time; new attempts supersede expired/failed ones.
type PaymentIntent struct {
	ID                string              `bson:"id" json:"id"`
	BookingID         string              `bson:"booking_id" json:"booking_id"`
	CustomerID        string              `bson:"customer_id" json:"customer_id"`
	AmountTotal       float64             `bson:"amount_total" json:"amount_total"`
	AmountFromWallet  float64             `bson:"amount_from_wallet" json:"amount_from_wallet"`
	AmountFromRail    float64             `bson:"amount_from_rail" json:"amount_from_rail"`
	Currency          string              `bson:"currency" json:"currency"`
	ExternalRail      PaymentRail         `bson:"external_rail" json:"external_rail"`
	ExternalReference string              `bson:"external_reference,omitempty" json:"external_reference,omitempty"`
	RedirectURL       string              `bson:"redirect_url,omitempty" json:"redirect_url,omitempty"`
	Status            PaymentIntentStatus `bson:"status" json:"status"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
	ExpiresAt         time.Time           `bson:"expires_at" json:"expires_at"`
}
