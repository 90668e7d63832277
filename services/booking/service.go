package booking

import (
	"context"
	"fmt"
	"time"

	availabilityRepo "appointly/database/repository/availability"
	bookingRepo "appointly/database/repository/booking"
	catalogRepo "appointly/database/repository/catalog"
	"appointly/models"
	"appointly/services/notification"
	"appointly/services/payment"
	"appointly/services/scheduling"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reserveLockTTL = 5 * time.Second

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	Repo         bookingRepo.BookingRepository
	Catalog      catalogRepo.CatalogRepository
	Availability availabilityRepo.AvailabilityRepository
	Locker       ReservationLocker
	Payments     payment.PaymentOrchestrator
	Ledger       payment.LedgerService
	Waitlist     WaitlistHook
	Notifier     notification.NotificationService
	Policy       Policy
	Logger       *zap.Logger
}

func (s *DefaultBookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, *models.PaymentIntent, error) {
	svc, err := s.Catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, nil, err
	}
	if svc.SpecialistID != req.SpecialistID {
		return nil, nil, NewPolicyError("SERVICE_MISMATCH", "service does not belong to this specialist")
	}
	if _, err := s.Catalog.GetSpecialist(ctx, req.SpecialistID); err != nil {
		return nil, nil, err
	}

	day, err := parseDate(req.Date)
	if err != nil {
		return nil, nil, err
	}
	scheduledAt := day.Add(time.Duration(req.StartMinute) * time.Minute)
	if scheduledAt.Before(time.Now()) {
		return nil, nil, NewPolicyError("SLOT_IN_PAST", "requested start time has already passed")
	}
	if err := s.checkWithinWorkingHours(ctx, req.SpecialistID, day, req.StartMinute, svc.DurationMinutes); err != nil {
		return nil, nil, err
	}

	// Serialize reservations per specialist so the overlap check and the
	// insert behave as one unit even across processes.
	release, err := s.Locker.Acquire(ctx, "reserve:"+req.SpecialistID, reserveLockTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire reservation lock: %w", err)
	}
	defer release()

	booking := &models.Booking{
		ID:              uuid.New().String(),
		CustomerID:      req.CustomerID,
		SpecialistID:    req.SpecialistID,
		ServiceID:       req.ServiceID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: svc.DurationMinutes,
		Status:          models.BookingPendingPayment,
		TotalAmount:     svc.Price,
		Currency:        svc.Currency,
		CustomerNotes:   req.CustomerNotes,
		CreatedAt:       time.Now(),
	}
	conflicts, err := s.Repo.Reserve(ctx, booking)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, nil, &ConflictError{ConflictingBookingIDs: conflicts}
	}

	intent, err := s.Payments.CreatePaymentIntent(ctx, booking, req.UseWalletFirst, req.PreferredRail)
	if err != nil {
		// The reservation must not hold the slot without a live payment path.
		s.releaseReservation(ctx, booking, models.CancelReasonPaymentFailed)
		return nil, nil, err
	}

	if s.Waitlist != nil {
		s.Waitlist.BookingCreated(ctx, req.CustomerID, req.SpecialistID, req.Date, req.StartMinute)
	}
	s.notify(ctx, req.SpecialistID, "booking_created",
		fmt.Sprintf("New booking request for %s", scheduledAt.Format(time.RFC3339)), booking.ID)

	// MarkPaid may have already advanced a wallet-only booking.
	current, err := s.Repo.GetByID(ctx, booking.ID)
	if err != nil {
		return booking, intent, nil
	}
	return current, intent, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *DefaultBookingService) MarkPaid(ctx context.Context, bookingID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, b, models.BookingPending, bookingRepo.StatusUpdate{
		Status: models.BookingPending,
	}); err != nil {
		return err
	}
	s.notify(ctx, b.CustomerID, "payment_received", "Payment received, awaiting specialist confirmation", b.ID)

	sp, err := s.Catalog.GetSpecialist(ctx, b.SpecialistID)
	if err != nil {
		s.Logger.Warn("auto-confirm check failed", zap.String("bookingID", b.ID), zap.Error(err))
		return nil
	}
	if sp.AutoConfirm {
		return s.Confirm(ctx, bookingID)
	}
	return nil
}

func (s *DefaultBookingService) Confirm(ctx context.Context, bookingID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := s.transition(ctx, b, models.BookingConfirmed, bookingRepo.StatusUpdate{
		Status:      models.BookingConfirmed,
		ConfirmedAt: &now,
	}); err != nil {
		return err
	}
	s.notify(ctx, b.CustomerID, "booking_confirmed", "Your booking has been confirmed", b.ID)
	return nil
}

func (s *DefaultBookingService) Reject(ctx context.Context, bookingID, reason string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := s.transition(ctx, b, models.BookingRejected, bookingRepo.StatusUpdate{
		Status:          models.BookingRejected,
		SpecialistNotes: reason,
		CancelledAt:     &now,
	}); err != nil {
		return err
	}
	// Specialist declined: the customer gets everything back.
	if err := s.Payments.RefundForBooking(ctx, b, 0); err != nil {
		s.Logger.Error("refund after rejection failed", zap.String("bookingID", b.ID), zap.Error(err))
	}
	s.freeSlot(ctx, b)
	s.notify(ctx, b.CustomerID, "booking_rejected", "Your booking was declined and refunded in full", b.ID)
	return nil
}

func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	// Once the start time is behind, the outcome belongs to the specialist
	// (no-show or complete), not a customer cancel.
	if time.Now().After(b.ScheduledAt) {
		return NewPolicyError("CANCEL_TOO_LATE", "booking start time has already passed")
	}
	now := time.Now()
	if err := s.transition(ctx, b, models.BookingCancelled, bookingRepo.StatusUpdate{
		Status:       models.BookingCancelled,
		CancelReason: models.CancelReasonUser,
		CancelledAt:  &now,
	}); err != nil {
		return err
	}

	retain := 0.0
	if time.Until(b.ScheduledAt) < s.Policy.CancellationWindow {
		retain = s.Policy.ForfeitureSplit
	}
	if err := s.Payments.RefundForBooking(ctx, b, retain); err != nil {
		s.Logger.Error("refund after cancellation failed", zap.String("bookingID", b.ID), zap.Error(err))
	}
	s.freeSlot(ctx, b)
	s.notify(ctx, b.SpecialistID, "booking_cancelled", "A booking was cancelled", b.ID)
	return nil
}

func (s *DefaultBookingService) Reschedule(ctx context.Context, bookingID, date string, startMinute int) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case models.BookingPending, models.BookingConfirmed:
	default:
		return nil, NewPolicyError("NOT_RESCHEDULABLE", fmt.Sprintf("booking in status %s cannot be rescheduled", b.Status))
	}
	if time.Until(b.ScheduledAt) < s.Policy.CancellationWindow {
		return nil, NewPolicyError("RESCHEDULE_TOO_LATE", "booking starts too soon to reschedule")
	}

	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	newStart := day.Add(time.Duration(startMinute) * time.Minute)
	if newStart.Before(time.Now()) {
		return nil, NewPolicyError("SLOT_IN_PAST", "requested start time has already passed")
	}
	if err := s.checkWithinWorkingHours(ctx, b.SpecialistID, day, startMinute, b.DurationMinutes); err != nil {
		return nil, err
	}

	release, err := s.Locker.Acquire(ctx, "reserve:"+b.SpecialistID, reserveLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire reservation lock: %w", err)
	}
	defer release()

	conflicts, err := s.Repo.Reschedule(ctx, bookingID, newStart)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{ConflictingBookingIDs: conflicts}
	}

	oldDay := time.Date(b.ScheduledAt.Year(), b.ScheduledAt.Month(), b.ScheduledAt.Day(), 0, 0, 0, 0, b.ScheduledAt.Location())
	if s.Waitlist != nil {
		s.Waitlist.SlotFreed(ctx, b.SpecialistID, oldDay.Format("2006-01-02"),
			int(b.ScheduledAt.Sub(oldDay).Minutes()), b.DurationMinutes)
	}
	s.notify(ctx, b.SpecialistID, "booking_rescheduled",
		fmt.Sprintf("Booking moved to %s", newStart.Format(time.RFC3339)), b.ID)
	return s.Repo.GetByID(ctx, bookingID)
}

func (s *DefaultBookingService) Start(ctx context.Context, bookingID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if time.Now().Before(b.ScheduledAt) {
		return NewPolicyError("TOO_EARLY", "booking cannot start before its scheduled time")
	}
	return s.transition(ctx, b, models.BookingInProgress, bookingRepo.StatusUpdate{
		Status: models.BookingInProgress,
	})
}

func (s *DefaultBookingService) Complete(ctx context.Context, bookingID, specialistNotes string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := s.transition(ctx, b, models.BookingCompleted, bookingRepo.StatusUpdate{
		Status:          models.BookingCompleted,
		SpecialistNotes: specialistNotes,
		CompletedAt:     &now,
	}); err != nil {
		return err
	}

	payout := b.TotalAmount * (1 - s.Policy.CommissionRate)
	if payout > 0 {
		if _, err := s.Ledger.Credit(ctx, b.SpecialistID, payout, models.LedgerPayout, "completed booking payout", b.ID); err != nil {
			s.Logger.Error("payout accrual failed", zap.String("bookingID", b.ID), zap.Error(err))
		}
	}
	s.notify(ctx, b.CustomerID, "booking_completed", "Your booking is complete", b.ID)
	return nil
}

func (s *DefaultBookingService) MarkNoShow(ctx context.Context, bookingID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if time.Now().Before(b.ScheduledAt) {
		return NewPolicyError("TOO_EARLY", "cannot mark a no-show before the scheduled time")
	}
	now := time.Now()
	if err := s.transition(ctx, b, models.BookingNoShow, bookingRepo.StatusUpdate{
		Status:      models.BookingNoShow,
		CancelledAt: &now,
	}); err != nil {
		return err
	}
	// No-show splits the paid amount like a late cancellation.
	if err := s.Payments.RefundForBooking(ctx, b, s.Policy.ForfeitureSplit); err != nil {
		s.Logger.Error("refund after no-show failed", zap.String("bookingID", b.ID), zap.Error(err))
	}
	s.notify(ctx, b.CustomerID, "booking_no_show", "You were marked as a no-show", b.ID)
	return nil
}

func (s *DefaultBookingService) CancelForPaymentTimeout(ctx context.Context, bookingID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	applied, err := s.Repo.TransitionStatus(ctx, b.ID,
		[]models.BookingStatus{models.BookingPendingPayment},
		cancelUpdate(models.CancelReasonPaymentTimeout))
	if err != nil {
		return err
	}
	if !applied {
		return nil // paid or cancelled in the meantime
	}
	s.freeSlot(ctx, b)
	s.notify(ctx, b.CustomerID, "booking_expired", "Your booking expired because payment was not completed", b.ID)
	return nil
}

// transition applies the state machine and the conditional update together.
// Losing the status race to an identical transition is treated as success.
func (s *DefaultBookingService) transition(ctx context.Context, b *models.Booking, to models.BookingStatus, upd bookingRepo.StatusUpdate) error {
	noop, err := ValidateTransition(b.Status, to)
	if err != nil {
		return err
	}
	if noop {
		return nil
	}
	applied, err := s.Repo.TransitionStatus(ctx, b.ID, []models.BookingStatus{b.Status}, upd)
	if err != nil {
		return err
	}
	if !applied {
		current, gerr := s.Repo.GetByID(ctx, b.ID)
		if gerr != nil {
			return gerr
		}
		if current.Status == to {
			return nil
		}
		return &InvalidTransitionError{From: current.Status, To: to}
	}
	b.Status = to
	return nil
}

func (s *DefaultBookingService) releaseReservation(ctx context.Context, b *models.Booking, reason string) {
	applied, err := s.Repo.TransitionStatus(ctx, b.ID,
		[]models.BookingStatus{models.BookingPendingPayment}, cancelUpdate(reason))
	if err != nil || !applied {
		s.Logger.Error("failed to release reservation",
			zap.String("bookingID", b.ID), zap.Bool("applied", applied), zap.Error(err))
		return
	}
	s.freeSlot(ctx, b)
}

// freeSlot tells the waitlist the booking's interval is open again, unless it
// is already in the past.
func (s *DefaultBookingService) freeSlot(ctx context.Context, b *models.Booking) {
	if s.Waitlist == nil || b.EndsAt().Before(time.Now()) {
		return
	}
	day := time.Date(b.ScheduledAt.Year(), b.ScheduledAt.Month(), b.ScheduledAt.Day(), 0, 0, 0, 0, b.ScheduledAt.Location())
	s.Waitlist.SlotFreed(ctx, b.SpecialistID, day.Format("2006-01-02"),
		int(b.ScheduledAt.Sub(day).Minutes()), b.DurationMinutes)
}

func (s *DefaultBookingService) checkWithinWorkingHours(ctx context.Context, specialistID string, day time.Time, startMinute, durationMinutes int) error {
	windows, err := s.Availability.WindowsFor(ctx, specialistID, day)
	if err != nil {
		return fmt.Errorf("failed to load availability windows: %w", err)
	}
	if _, ok := scheduling.WindowContaining(windows, startMinute, durationMinutes); !ok {
		return NewPolicyError("OUTSIDE_WORKING_HOURS", "requested slot falls outside the specialist's working hours")
	}
	return nil
}

func (s *DefaultBookingService) notify(ctx context.Context, recipientID, notifType, message, bookingID string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, recipientID, notifType, message, map[string]string{"booking_id": bookingID})
}

func cancelUpdate(reason string) bookingRepo.StatusUpdate {
	now := time.Now()
	return bookingRepo.StatusUpdate{
		Status:       models.BookingCancelled,
		CancelReason: reason,
		CancelledAt:  &now,
	}
}

func parseDate(date string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, NewPolicyError("INVALID_DATE", "date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}
