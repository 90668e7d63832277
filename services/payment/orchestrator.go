package payment

import (
	"context"
	"fmt"
	"time"

	paymentRepo "appointly/database/repository/payment"
	"appointly/models"
	"appointly/services/payment/rails"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentOrchestrator decides how a booking's total is covered across the
// wallet and one external rail, and tracks the intent to completion or expiry.
type PaymentOrchestrator interface {
	// CreatePaymentIntent applies the wallet first (when requested) and
	// creates at most one external charge for the remainder. A wallet-only
	// intent completes synchronously and advances the booking.
	CreatePaymentIntent(ctx context.Context, booking *models.Booking, useWalletFirst bool, preferredRail models.PaymentRail) (*models.PaymentIntent, error)
	// ConfirmByReference is the webhook/polling confirmation path. It is
	// idempotent on the external reference; a duplicate returns
	// DuplicateConfirmationError and changes nothing.
	ConfirmByReference(ctx context.Context, ref string) (*models.PaymentIntent, error)
	// FailByReference voids an awaiting intent after a provider failure and
	// restores the wallet portion. The booking stays awaiting payment.
	FailByReference(ctx context.Context, ref string) error
	// GetPaymentStatus returns the intent for client polling, lazily expiring
	// it when past its deadline and checking the rail for confirmation.
	GetPaymentStatus(ctx context.Context, intentID string) (*models.PaymentIntent, error)
	// RefundForBooking runs the refund workflow for a cancelled/rejected
	// booking. retainFraction of the paid amount is kept for the specialist
	// (forfeiture split); the rest returns to the customer's wallet.
	RefundForBooking(ctx context.Context, booking *models.Booking, retainFraction float64) error
	// SweepExpired expires overdue intents, refunding wallet portions and
	// cancelling their bookings. Returns how many intents were expired.
	SweepExpired(ctx context.Context) (int, error)
}

// BookingAdvancer is the slice of the booking lifecycle the orchestrator
// drives. Wired after construction to break the service cycle.
type BookingAdvancer interface {
	MarkPaid(ctx context.Context, bookingID string) error
	CancelForPaymentTimeout(ctx context.Context, bookingID string) error
}

// IdempotencyStore records one-shot confirmation keys.
type IdempotencyStore interface {
	SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	DeleteIdempotencyKey(ctx context.Context, key string) error
}

// DefaultPaymentOrchestrator is the production implementation.
type DefaultPaymentOrchestrator struct {
	Intents   paymentRepo.PaymentIntentRepository
	Ledger    LedgerService
	Rails     map[models.PaymentRail]rails.Rail
	RailOrder []models.PaymentRail // auto-selection preference
	Bookings  BookingAdvancer
	Idem      IdempotencyStore
	IntentTTL time.Duration
	Logger    *zap.Logger
}

func (o *DefaultPaymentOrchestrator) CreatePaymentIntent(ctx context.Context, booking *models.Booking, useWalletFirst bool, preferredRail models.PaymentRail) (*models.PaymentIntent, error) {
	if existing, err := o.Intents.ActiveForBooking(ctx, booking.ID); err != nil {
		return nil, err
	} else if existing != nil {
		// A booking owns at most one non-terminal intent.
		return existing, nil
	}

	now := time.Now()
	intent := &models.PaymentIntent{
		ID:          uuid.New().String(),
		BookingID:   booking.ID,
		CustomerID:  booking.CustomerID,
		AmountTotal: booking.TotalAmount,
		Currency:    booking.Currency,
		Status:      models.IntentPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(o.IntentTTL),
	}

	// Step 1: wallet application.
	if useWalletFirst || preferredRail == models.RailWalletOnly {
		balance, err := o.Ledger.Balance(ctx, booking.CustomerID)
		if err != nil {
			return nil, err
		}
		walletShare := balance
		if walletShare > booking.TotalAmount {
			walletShare = booking.TotalAmount
		}
		if walletShare > 0 {
			if _, err := o.Ledger.Debit(ctx, booking.CustomerID, walletShare, "booking payment", booking.ID); err != nil {
				return nil, err
			}
			intent.AmountFromWallet = walletShare
		}
	}
	intent.AmountFromRail = intent.AmountTotal - intent.AmountFromWallet

	// Step 2: wallet covered everything, complete synchronously.
	if intent.AmountFromRail == 0 {
		intent.ExternalRail = models.RailWalletOnly
		intent.Status = models.IntentCompleted
		if err := o.Intents.Insert(ctx, intent); err != nil {
			// Nothing recorded the debit; give it back.
			o.rollbackWallet(ctx, intent)
			return nil, err
		}
		if err := o.Bookings.MarkPaid(ctx, booking.ID); err != nil {
			o.Logger.Error("failed to advance booking after wallet payment",
				zap.String("bookingID", booking.ID), zap.Error(err))
		}
		return intent, nil
	}

	// An explicit wallet-only payment must not touch an external rail.
	if preferredRail == models.RailWalletOnly {
		o.rollbackWallet(ctx, intent)
		return nil, &InsufficientFundsError{Shortfall: intent.AmountFromRail}
	}

	// Step 3: exactly one external charge for the remainder.
	railName, rail, err := o.selectRail(preferredRail)
	if err != nil {
		o.rollbackWallet(ctx, intent)
		return nil, err
	}
	charge, err := rail.CreateCharge(ctx, rails.ChargeRequest{
		Amount:      intent.AmountFromRail,
		Currency:    intent.Currency,
		BookingID:   booking.ID,
		Description: fmt.Sprintf("Booking %s", booking.ID),
	})
	if err != nil {
		// Creation failed: restore the wallet portion so no funds have moved.
		o.rollbackWallet(ctx, intent)
		return nil, &ExternalRailError{Rail: railName, Err: err}
	}

	intent.ExternalRail = railName
	intent.ExternalReference = charge.Reference
	intent.RedirectURL = charge.RedirectURL
	intent.Status = models.IntentAwaitingConfirmation
	if !charge.ExpiresAt.IsZero() && charge.ExpiresAt.Before(intent.ExpiresAt) {
		intent.ExpiresAt = charge.ExpiresAt
	}
	if err := o.Intents.Insert(ctx, intent); err != nil {
		// The charge exists at the provider but nothing references it; restore
		// the wallet share and let the unpaid charge lapse at expiresAt.
		o.rollbackWallet(ctx, intent)
		o.Logger.Error("orphaned external charge after intent insert failure",
			zap.String("bookingID", booking.ID), zap.String("reference", charge.Reference), zap.Error(err))
		return nil, err
	}
	return intent, nil
}

func (o *DefaultPaymentOrchestrator) selectRail(preferred models.PaymentRail) (models.PaymentRail, rails.Rail, error) {
	if preferred != "" && preferred != models.RailAuto {
		rail, ok := o.Rails[preferred]
		if !ok {
			return preferred, nil, &ExternalRailError{Rail: preferred, Err: fmt.Errorf("rail not configured")}
		}
		return preferred, rail, nil
	}
	for _, name := range o.RailOrder {
		if rail, ok := o.Rails[name]; ok {
			return name, rail, nil
		}
	}
	return models.RailAuto, nil, &ExternalRailError{Rail: models.RailAuto, Err: fmt.Errorf("no rails configured")}
}

// rollbackWallet restores a wallet share debited for an intent that never
// reached its external rail.
func (o *DefaultPaymentOrchestrator) rollbackWallet(ctx context.Context, intent *models.PaymentIntent) {
	if intent.AmountFromWallet <= 0 {
		return
	}
	if _, err := o.Ledger.Credit(ctx, intent.CustomerID, intent.AmountFromWallet, models.LedgerRefund, "payment aborted", intent.BookingID); err != nil {
		o.Logger.Error("wallet rollback failed", zap.String("intentID", intent.ID), zap.Error(err))
	}
}

func (o *DefaultPaymentOrchestrator) ConfirmByReference(ctx context.Context, ref string) (*models.PaymentIntent, error) {
	// Fast-path duplicate suppression; the conditional update below stays the
	// source of truth even when the key has aged out.
	if o.Idem != nil {
		first, err := o.Idem.SetIdempotencyKey(ctx, "payconf:"+ref, 24*time.Hour)
		if err == nil && !first {
			return nil, &DuplicateConfirmationError{Reference: ref}
		}
	}

	intent, applied, err := o.Intents.CompleteByReference(ctx, ref)
	if err != nil {
		// The key must not outlive a failed transition or retries would be
		// swallowed as duplicates until it ages out.
		o.releaseConfirmationKey(ctx, ref)
		return nil, err
	}
	if !applied {
		switch intent.Status {
		case models.IntentCompleted:
			return intent, &DuplicateConfirmationError{Reference: ref}
		case models.IntentExpired:
			o.releaseConfirmationKey(ctx, ref)
			return intent, &PaymentExpiredError{IntentID: intent.ID}
		default:
			o.releaseConfirmationKey(ctx, ref)
			return intent, fmt.Errorf("intent %s not awaiting confirmation (status %s)", intent.ID, intent.Status)
		}
	}

	if err := o.Bookings.MarkPaid(ctx, intent.BookingID); err != nil {
		o.Logger.Error("failed to advance booking after confirmation",
			zap.String("bookingID", intent.BookingID), zap.Error(err))
	}
	return intent, nil
}

func (o *DefaultPaymentOrchestrator) releaseConfirmationKey(ctx context.Context, ref string) {
	if o.Idem == nil {
		return
	}
	if err := o.Idem.DeleteIdempotencyKey(ctx, "payconf:"+ref); err != nil {
		o.Logger.Warn("failed to release confirmation key",
			zap.String("reference", ref), zap.Error(err))
	}
}

func (o *DefaultPaymentOrchestrator) FailByReference(ctx context.Context, ref string) error {
	intent, err := o.Intents.GetByReference(ctx, ref)
	if err != nil {
		return err
	}
	applied, err := o.Intents.TransitionStatus(ctx, intent.ID,
		[]models.PaymentIntentStatus{models.IntentAwaitingConfirmation}, models.IntentFailed)
	if err != nil {
		return err
	}
	if applied {
		o.rollbackWallet(ctx, intent)
	}
	return nil
}

func (o *DefaultPaymentOrchestrator) GetPaymentStatus(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	intent, err := o.Intents.GetByID(ctx, intentID)
	if err != nil {
		return nil, err
	}

	// Lazy expiry on read.
	if !intent.Status.Terminal() && time.Now().After(intent.ExpiresAt) {
		if err := o.expireIntent(ctx, intent); err != nil {
			return nil, err
		}
		return o.Intents.GetByID(ctx, intentID)
	}

	// Poll the rail so clients that never receive a webhook still converge.
	if intent.Status == models.IntentAwaitingConfirmation {
		if rail, ok := o.Rails[intent.ExternalRail]; ok {
			status, err := rail.GetStatus(ctx, intent.ExternalReference)
			if err == nil && status == rails.StatusConfirmed {
				if confirmed, cerr := o.ConfirmByReference(ctx, intent.ExternalReference); cerr == nil {
					return confirmed, nil
				}
			}
		}
	}
	return intent, nil
}

func (o *DefaultPaymentOrchestrator) expireIntent(ctx context.Context, intent *models.PaymentIntent) error {
	applied, err := o.Intents.TransitionStatus(ctx, intent.ID,
		[]models.PaymentIntentStatus{models.IntentPending, models.IntentAwaitingConfirmation},
		models.IntentExpired)
	if err != nil {
		return err
	}
	if !applied {
		return nil // lost the race to a confirmation or another sweep
	}

	o.rollbackWallet(ctx, intent)
	if err := o.Bookings.CancelForPaymentTimeout(ctx, intent.BookingID); err != nil {
		o.Logger.Error("failed to cancel booking after payment expiry",
			zap.String("bookingID", intent.BookingID), zap.Error(err))
	}
	o.Logger.Info("payment intent expired",
		zap.String("intentID", intent.ID), zap.String("bookingID", intent.BookingID))
	return nil
}

func (o *DefaultPaymentOrchestrator) SweepExpired(ctx context.Context) (int, error) {
	intents, err := o.Intents.FindExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range intents {
		if err := o.expireIntent(ctx, &intents[i]); err != nil {
			o.Logger.Error("expiry sweep failed for intent",
				zap.String("intentID", intents[i].ID), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

func (o *DefaultPaymentOrchestrator) RefundForBooking(ctx context.Context, booking *models.Booking, retainFraction float64) error {
	// Void any in-flight intent first; its wallet share comes straight back.
	if active, err := o.Intents.ActiveForBooking(ctx, booking.ID); err != nil {
		return err
	} else if active != nil {
		applied, err := o.Intents.TransitionStatus(ctx, active.ID,
			[]models.PaymentIntentStatus{models.IntentPending, models.IntentAwaitingConfirmation},
			models.IntentFailed)
		if err != nil {
			return err
		}
		if applied {
			o.rollbackWallet(ctx, active)
		}
	}

	completed, err := o.Intents.CompletedForBooking(ctx, booking.ID)
	if err != nil {
		return err
	}
	if completed == nil {
		return nil // nothing collected, nothing to refund
	}

	retained := completed.AmountTotal * retainFraction
	refund := completed.AmountTotal - retained
	if refund > 0 {
		if _, err := o.Ledger.Credit(ctx, booking.CustomerID, refund, models.LedgerRefund, "booking refund", booking.ID); err != nil {
			return err
		}
	}
	if retained > 0 {
		if _, err := o.Ledger.Credit(ctx, booking.SpecialistID, retained, models.LedgerForfeitureSplit, "forfeited deposit share", booking.ID); err != nil {
			return err
		}
	}
	return nil
}
