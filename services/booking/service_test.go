package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingRepo "appointly/database/repository/booking"
	"appointly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memBookingRepo is an in-memory BookingRepository. Reserve and Reschedule
// re-check the overlap invariant under a mutex, mirroring the transactional
// mongo implementation.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) overlappingLocked(specialistID string, start time.Time, durationMinutes int, excludeID string) []string {
	var ids []string
	for _, b := range r.bookings {
		if b.SpecialistID != specialistID || b.ID == excludeID {
			continue
		}
		active := false
		for _, s := range models.ActiveBookingStatuses {
			if b.Status == s {
				active = true
				break
			}
		}
		if active && b.Overlaps(start, durationMinutes) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func (r *memBookingRepo) FindOverlapping(ctx context.Context, specialistID string, start time.Time, durationMinutes int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, id := range r.overlappingLocked(specialistID, start, durationMinutes, "") {
		out = append(out, *r.bookings[id])
	}
	return out, nil
}

func (r *memBookingRepo) FindActiveBetween(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.SpecialistID != specialistID || b.Status.Terminal() {
			continue
		}
		if !b.ScheduledAt.Before(from) && b.ScheduledAt.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Reserve(ctx context.Context, booking *models.Booking) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conflicts := r.overlappingLocked(booking.SpecialistID, booking.ScheduledAt, booking.DurationMinutes, ""); len(conflicts) > 0 {
		return conflicts, nil
	}
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil, nil
}

func (r *memBookingRepo) Reschedule(ctx context.Context, bookingID string, newStart time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s not found", bookingID)
	}
	if conflicts := r.overlappingLocked(b.SpecialistID, newStart, b.DurationMinutes, bookingID); len(conflicts) > 0 {
		return conflicts, nil
	}
	b.ScheduledAt = newStart
	return nil, nil
}

func (r *memBookingRepo) TransitionStatus(ctx context.Context, id string, from []models.BookingStatus, upd bookingRepo.StatusUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, f := range from {
		if b.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	b.Status = upd.Status
	if upd.CancelReason != "" {
		b.CancelReason = upd.CancelReason
	}
	if upd.SpecialistNotes != "" {
		b.SpecialistNotes = upd.SpecialistNotes
	}
	if upd.ConfirmedAt != nil {
		b.ConfirmedAt = upd.ConfirmedAt
	}
	if upd.CompletedAt != nil {
		b.CompletedAt = upd.CompletedAt
	}
	if upd.CancelledAt != nil {
		b.CancelledAt = upd.CancelledAt
	}
	return true, nil
}

// fakeCatalog serves a fixed service and specialist.
type fakeCatalog struct {
	autoConfirm bool
}

func (f *fakeCatalog) GetService(ctx context.Context, id string) (*models.Service, error) {
	if id != "svc-1" {
		return nil, fmt.Errorf("service %s not found", id)
	}
	return &models.Service{
		ID:              "svc-1",
		SpecialistID:    "sp-1",
		Name:            "Deep tissue massage",
		DurationMinutes: 60,
		Price:           50,
		Currency:        "USD",
	}, nil
}

func (f *fakeCatalog) GetSpecialist(ctx context.Context, id string) (*models.Specialist, error) {
	if id != "sp-1" {
		return nil, fmt.Errorf("specialist %s not found", id)
	}
	return &models.Specialist{ID: "sp-1", Name: "Sam", AutoConfirm: f.autoConfirm}, nil
}

// fakeAvailability serves one all-week 09:00-17:00 window.
type fakeAvailability struct{}

func (f *fakeAvailability) WindowsFor(ctx context.Context, specialistID string, date time.Time) ([]models.AvailabilityWindow, error) {
	return []models.AvailabilityWindow{{
		SpecialistID:       specialistID,
		DayOfWeek:          int(date.Weekday()),
		StartMinute:        540,
		EndMinute:          1020,
		GranularityMinutes: 15,
	}}, nil
}

// localLocker is a process-local ReservationLocker.
type localLocker struct {
	mu sync.Mutex
}

func (l *localLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	return func() { l.mu.Unlock() }, nil
}

// fakeOrchestrator records payment calls.
type fakeOrchestrator struct {
	mu          sync.Mutex
	failCreate  bool
	refunds     []float64
	refundedIDs []string
}

func (f *fakeOrchestrator) CreatePaymentIntent(ctx context.Context, b *models.Booking, useWalletFirst bool, preferredRail models.PaymentRail) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, fmt.Errorf("provider unavailable")
	}
	return &models.PaymentIntent{
		ID:          "pi-" + b.ID,
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		AmountTotal: b.TotalAmount,
		Status:      models.IntentAwaitingConfirmation,
	}, nil
}

func (f *fakeOrchestrator) ConfirmByReference(ctx context.Context, ref string) (*models.PaymentIntent, error) {
	return nil, nil
}

func (f *fakeOrchestrator) FailByReference(ctx context.Context, ref string) error { return nil }

func (f *fakeOrchestrator) GetPaymentStatus(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	return nil, nil
}

func (f *fakeOrchestrator) RefundForBooking(ctx context.Context, b *models.Booking, retainFraction float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, retainFraction)
	f.refundedIDs = append(f.refundedIDs, b.ID)
	return nil
}

func (f *fakeOrchestrator) SweepExpired(ctx context.Context) (int, error) { return 0, nil }

// recordingLedger captures payout credits.
type recordingLedger struct {
	mu      sync.Mutex
	credits []models.WalletLedgerEntry
}

func (l *recordingLedger) Credit(ctx context.Context, userID string, amount float64, entryType models.LedgerEntryType, reason, referenceID string) (*models.WalletLedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := models.WalletLedgerEntry{UserID: userID, Type: entryType, Amount: amount, Reason: reason, ReferenceID: referenceID}
	l.credits = append(l.credits, entry)
	return &entry, nil
}

func (l *recordingLedger) Debit(ctx context.Context, userID string, amount float64, reason, referenceID string) (*models.WalletLedgerEntry, error) {
	return nil, fmt.Errorf("unexpected debit")
}

func (l *recordingLedger) Balance(ctx context.Context, userID string) (float64, error) {
	return 0, nil
}

func (l *recordingLedger) Entries(ctx context.Context, userID string) ([]models.WalletLedgerEntry, error) {
	return nil, nil
}

// slotEvent records one WaitlistHook callback.
type slotEvent struct {
	kind        string
	date        string
	startMinute int
}

type recordingHook struct {
	mu     sync.Mutex
	events []slotEvent
}

func (h *recordingHook) SlotFreed(ctx context.Context, specialistID, date string, startMinute, durationMinutes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, slotEvent{kind: "freed", date: date, startMinute: startMinute})
}

func (h *recordingHook) BookingCreated(ctx context.Context, customerID, specialistID, date string, startMinute int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, slotEvent{kind: "created", date: date, startMinute: startMinute})
}

type bookingHarness struct {
	svc      *DefaultBookingService
	repo     *memBookingRepo
	catalog  *fakeCatalog
	payments *fakeOrchestrator
	ledger   *recordingLedger
	hook     *recordingHook
}

func newBookingHarness(t *testing.T) *bookingHarness {
	t.Helper()
	repo := newMemBookingRepo()
	catalog := &fakeCatalog{}
	payments := &fakeOrchestrator{}
	ledger := &recordingLedger{}
	hook := &recordingHook{}
	svc := &DefaultBookingService{
		Repo:         repo,
		Catalog:      catalog,
		Availability: &fakeAvailability{},
		Locker:       &localLocker{},
		Payments:     payments,
		Ledger:       ledger,
		Waitlist:     hook,
		Policy: Policy{
			CancellationWindow: 24 * time.Hour,
			ForfeitureSplit:    0.5,
			CommissionRate:     0.15,
		},
		Logger: zap.NewNop(),
	}
	return &bookingHarness{svc: svc, repo: repo, catalog: catalog, payments: payments, ledger: ledger, hook: hook}
}

// futureDate is far enough out that the cancellation window does not apply.
func futureDate() string {
	return time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
}

func createRequest() CreateBookingRequest {
	return CreateBookingRequest{
		CustomerID:   "cust-1",
		SpecialistID: "sp-1",
		ServiceID:    "svc-1",
		Date:         futureDate(),
		StartMinute:  600,
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()

	b, intent, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NotNil(t, intent)

	assert.Equal(t, models.BookingPendingPayment, b.Status)
	assert.Equal(t, 60, b.DurationMinutes)
	assert.Equal(t, 50.0, b.TotalAmount)
	assert.Equal(t, b.ID, intent.BookingID)

	h.hook.mu.Lock()
	defer h.hook.mu.Unlock()
	require.Len(t, h.hook.events, 1)
	assert.Equal(t, "created", h.hook.events[0].kind)
	assert.Equal(t, 600, h.hook.events[0].startMinute, "conversion is keyed to the booked slot")
}

func TestCreateBookingOutsideWorkingHours(t *testing.T) {
	h := newBookingHarness(t)
	req := createRequest()
	req.StartMinute = 1000 // 16:40, a 60-minute service runs past 17:00

	_, _, err := h.svc.CreateBooking(context.Background(), req)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, "OUTSIDE_WORKING_HOURS", policy.Code)
}

func TestCreateBookingInPast(t *testing.T) {
	h := newBookingHarness(t)
	req := createRequest()
	req.Date = time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")

	_, _, err := h.svc.CreateBooking(context.Background(), req)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, "SLOT_IN_PAST", policy.Code)
}

func TestCreateBookingServiceMismatch(t *testing.T) {
	h := newBookingHarness(t)
	req := createRequest()
	req.SpecialistID = "sp-2"

	_, _, err := h.svc.CreateBooking(context.Background(), req)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, "SERVICE_MISMATCH", policy.Code)
}

func TestCreateBookingConflict(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()

	first, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)

	// Overlapping attempt: 30 minutes into the first booking.
	req := createRequest()
	req.StartMinute = 630
	_, _, err = h.svc.CreateBooking(ctx, req)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{first.ID}, conflict.ConflictingBookingIDs)
}

func TestCreateBookingConcurrentOnlyOneWins(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := h.svc.CreateBooking(ctx, createRequest())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		if err == nil {
			won++
		} else {
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
		}
	}
	assert.Equal(t, 1, won, "exactly one reservation wins the slot")
}

func TestCreateBookingPaymentFailureReleasesSlot(t *testing.T) {
	h := newBookingHarness(t)
	h.payments.failCreate = true
	ctx := context.Background()

	_, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.Error(t, err)

	// The slot is reusable immediately.
	h.payments.failCreate = false
	_, _, err = h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
}

func TestMarkPaidAdvancesToPending(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	updated, err := h.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, updated.Status)
}

func TestMarkPaidAutoConfirms(t *testing.T) {
	h := newBookingHarness(t)
	h.catalog.autoConfirm = true
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	updated, err := h.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
	assert.NotNil(t, updated.ConfirmedAt)
}

func TestCancelOutsideWindowFullRefund(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	require.NoError(t, h.svc.Confirm(ctx, b.ID))

	require.NoError(t, h.svc.Cancel(ctx, b.ID))

	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingCancelled, updated.Status)
	assert.Equal(t, models.CancelReasonUser, updated.CancelReason)
	require.Equal(t, []float64{0}, h.payments.refunds, "nothing retained outside the window")

	h.hook.mu.Lock()
	defer h.hook.mu.Unlock()
	last := h.hook.events[len(h.hook.events)-1]
	assert.Equal(t, "freed", last.kind)
	assert.Equal(t, 600, last.startMinute)
}

func TestCancelInsideWindowForfeits(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	require.NoError(t, h.svc.Confirm(ctx, b.ID))

	// Pull the start time inside the cancellation window.
	h.repo.mu.Lock()
	h.repo.bookings[b.ID].ScheduledAt = time.Now().Add(2 * time.Hour)
	h.repo.mu.Unlock()

	require.NoError(t, h.svc.Cancel(ctx, b.ID))
	require.Equal(t, []float64{0.5}, h.payments.refunds, "late cancel retains the forfeiture split")
}

func TestCancelAfterStartTimeRejected(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	require.NoError(t, h.svc.Confirm(ctx, b.ID))

	h.repo.mu.Lock()
	h.repo.bookings[b.ID].ScheduledAt = time.Now().Add(-time.Hour)
	h.repo.mu.Unlock()

	err = h.svc.Cancel(ctx, b.ID)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, "CANCEL_TOO_LATE", policy.Code)

	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingConfirmed, updated.Status, "the no-show flow owns a missed start")
	assert.Empty(t, h.payments.refunds)
}

func TestRejectRefundsInFull(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))

	require.NoError(t, h.svc.Reject(ctx, b.ID, "fully booked elsewhere"))
	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingRejected, updated.Status)
	assert.Equal(t, "fully booked elsewhere", updated.SpecialistNotes)
	assert.Equal(t, []float64{0}, h.payments.refunds)
}

func TestStartGuardsScheduledTime(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	require.NoError(t, h.svc.Confirm(ctx, b.ID))

	err = h.svc.Start(ctx, b.ID)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, "TOO_EARLY", policy.Code)

	h.repo.mu.Lock()
	h.repo.bookings[b.ID].ScheduledAt = time.Now().Add(-5 * time.Minute)
	h.repo.mu.Unlock()
	require.NoError(t, h.svc.Start(ctx, b.ID))

	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingInProgress, updated.Status)
}

func TestCompleteAccruesPayout(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	require.NoError(t, h.svc.Confirm(ctx, b.ID))
	h.repo.mu.Lock()
	h.repo.bookings[b.ID].ScheduledAt = time.Now().Add(-time.Hour)
	h.repo.mu.Unlock()
	require.NoError(t, h.svc.Start(ctx, b.ID))

	require.NoError(t, h.svc.Complete(ctx, b.ID, "went well"))

	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	h.ledger.mu.Lock()
	defer h.ledger.mu.Unlock()
	require.Len(t, h.ledger.credits, 1)
	assert.Equal(t, "sp-1", h.ledger.credits[0].UserID)
	assert.Equal(t, models.LedgerPayout, h.ledger.credits[0].Type)
	assert.InDelta(t, 42.5, h.ledger.credits[0].Amount, 1e-9) // 50 minus 15% commission
}

func TestCompleteRequiresInProgress(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	require.NoError(t, h.svc.Confirm(ctx, b.ID))

	err = h.svc.Complete(ctx, b.ID, "")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.BookingConfirmed, invalid.From)
}

func TestMarkNoShowSplitsPayment(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))
	require.NoError(t, h.svc.Confirm(ctx, b.ID))

	err = h.svc.MarkNoShow(ctx, b.ID)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)

	h.repo.mu.Lock()
	h.repo.bookings[b.ID].ScheduledAt = time.Now().Add(-time.Hour)
	h.repo.mu.Unlock()
	require.NoError(t, h.svc.MarkNoShow(ctx, b.ID))

	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingNoShow, updated.Status)
	assert.Equal(t, []float64{0.5}, h.payments.refunds)
}

func TestRescheduleMovesBookingAndFreesOldSlot(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))

	newDate := time.Now().UTC().AddDate(0, 0, 4).Format("2006-01-02")
	moved, err := h.svc.Reschedule(ctx, b.ID, newDate, 660)
	require.NoError(t, err)
	assert.Equal(t, newDate, moved.ScheduledAt.Format("2006-01-02"))

	h.hook.mu.Lock()
	defer h.hook.mu.Unlock()
	last := h.hook.events[len(h.hook.events)-1]
	assert.Equal(t, "freed", last.kind)
	assert.Equal(t, 600, last.startMinute)
	assert.Equal(t, futureDate(), last.date)
}

func TestRescheduleConflict(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	first, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)

	req := createRequest()
	req.StartMinute = 720
	second, _, err := h.svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, second.ID))

	_, err = h.svc.Reschedule(ctx, second.ID, futureDate(), 630)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{first.ID}, conflict.ConflictingBookingIDs)

	// The original reservation survives a failed move.
	unchanged, _ := h.svc.GetBooking(ctx, second.ID)
	assert.True(t, unchanged.ScheduledAt.Equal(second.ScheduledAt))
}

func TestRescheduleTooLate(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))

	h.repo.mu.Lock()
	h.repo.bookings[b.ID].ScheduledAt = time.Now().Add(2 * time.Hour)
	h.repo.mu.Unlock()

	_, err = h.svc.Reschedule(ctx, b.ID, futureDate(), 660)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, "RESCHEDULE_TOO_LATE", policy.Code)
}

func TestRescheduleRequiresPaidBooking(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.Equal(t, models.BookingPendingPayment, b.Status)

	_, err = h.svc.Reschedule(ctx, b.ID, futureDate(), 660)
	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, "NOT_RESCHEDULABLE", policy.Code)

	unchanged, _ := h.svc.GetBooking(ctx, b.ID)
	assert.True(t, unchanged.ScheduledAt.Equal(b.ScheduledAt))
}

func TestCancelForPaymentTimeout(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, h.svc.CancelForPaymentTimeout(ctx, b.ID))
	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingCancelled, updated.Status)
	assert.Equal(t, models.CancelReasonPaymentTimeout, updated.CancelReason)

	h.hook.mu.Lock()
	defer h.hook.mu.Unlock()
	assert.Equal(t, "freed", h.hook.events[len(h.hook.events)-1].kind)
}

func TestCancelForPaymentTimeoutIgnoresPaidBooking(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaid(ctx, b.ID))

	require.NoError(t, h.svc.CancelForPaymentTimeout(ctx, b.ID))
	updated, _ := h.svc.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingPending, updated.Status, "a paid booking is left alone")
}

func TestCancelledBookingIsNotDeleted(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	b, _, err := h.svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.Cancel(ctx, b.ID))

	kept, err := h.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err, "cancelled bookings stay readable")
	assert.Equal(t, models.BookingCancelled, kept.Status)
	assert.NotNil(t, kept.CancelledAt)
}
