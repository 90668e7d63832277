package waitlist

import (
	"context"
	"fmt"
	"time"

	catalogRepo "appointly/database/repository/catalog"
	waitlistRepo "appointly/database/repository/waitlist"
	"appointly/models"
	"appointly/services/notification"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// WaitlistService queues users for fully booked days and promotes them when
// slots free up.
type WaitlistService interface {
	// Join adds the user to the waitlist for the specialist on the given date.
	Join(ctx context.Context, req JoinRequest) (*models.WaitlistEntry, error)
	// PromoteForSlot offers the freed slot to the first matching WAITING entry.
	PromoteForSlot(ctx context.Context, specialistID, date string, startMinute, durationMinutes int) error
	// SlotFreed and BookingCreated implement the booking service's hook.
	SlotFreed(ctx context.Context, specialistID, date string, startMinute, durationMinutes int)
	BookingCreated(ctx context.Context, customerID, specialistID, date string, startMinute int)
	// SweepNotifications reverts entries whose notification deadline lapsed and
	// re-offers their slots down the line.
	SweepNotifications(ctx context.Context) error
	// ExpireStale expires WAITING entries whose preferred date has passed.
	ExpireStale(ctx context.Context) error
}

// JoinRequest is the input to Join.
type JoinRequest struct {
	UserID            string `json:"user_id" binding:"required"`
	SpecialistID      string `json:"specialist_id" binding:"required"`
	ServiceID         string `json:"service_id" binding:"required"`
	PreferredDate     string `json:"preferred_date" binding:"required"`
	PreferredTimeHint *int   `json:"preferred_time_hint"`
	Notes             string `json:"notes"`
}

// DefaultWaitlistService is the production implementation. A nil Queue runs
// promotions synchronously instead of through asynq.
type DefaultWaitlistService struct {
	Repo           waitlistRepo.WaitlistRepository
	Catalog        catalogRepo.CatalogRepository
	Notifier       notification.NotificationService
	Queue          *asynq.Client
	NotifyDeadline time.Duration
	Logger         *zap.Logger
}

func (s *DefaultWaitlistService) Join(ctx context.Context, req JoinRequest) (*models.WaitlistEntry, error) {
	day, err := time.Parse("2006-01-02", req.PreferredDate)
	if err != nil {
		return nil, fmt.Errorf("preferred_date must be formatted as YYYY-MM-DD")
	}
	today := time.Now().Format("2006-01-02")
	if day.Format("2006-01-02") < today {
		return nil, fmt.Errorf("preferred_date has already passed")
	}
	if _, err := s.Catalog.GetService(ctx, req.ServiceID); err != nil {
		return nil, err
	}

	entry := &models.WaitlistEntry{
		ID:                uuid.New().String(),
		UserID:            req.UserID,
		SpecialistID:      req.SpecialistID,
		ServiceID:         req.ServiceID,
		PreferredDate:     req.PreferredDate,
		PreferredTimeHint: req.PreferredTimeHint,
		Notes:             req.Notes,
		Status:            models.WaitlistWaiting,
		CreatedAt:         time.Now(),
	}
	if err := s.Repo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SlotFreed enqueues a promotion for the slot. Enqueue failures fall back to
// promoting inline so a broker outage never strands the slot.
func (s *DefaultWaitlistService) SlotFreed(ctx context.Context, specialistID, date string, startMinute, durationMinutes int) {
	if s.Queue != nil {
		task, err := NewPromoteTask(PromotePayload{
			SpecialistID:    specialistID,
			Date:            date,
			StartMinute:     startMinute,
			DurationMinutes: durationMinutes,
		})
		if err == nil {
			if _, err = s.Queue.EnqueueContext(ctx, task); err == nil {
				return
			}
		}
		s.Logger.Warn("failed to enqueue waitlist promotion, promoting inline",
			zap.String("specialistID", specialistID), zap.Error(err))
	}
	if err := s.PromoteForSlot(ctx, specialistID, date, startMinute, durationMinutes); err != nil {
		s.Logger.Error("inline waitlist promotion failed",
			zap.String("specialistID", specialistID), zap.Error(err))
	}
}

// BookingCreated converts the user's notified entry, but only when the booking
// starts inside the slot the entry was offered.
func (s *DefaultWaitlistService) BookingCreated(ctx context.Context, customerID, specialistID, date string, startMinute int) {
	converted, err := s.Repo.MarkConverted(ctx, customerID, specialistID, date, startMinute)
	if err != nil {
		s.Logger.Error("waitlist conversion failed",
			zap.String("userID", customerID), zap.Error(err))
		return
	}
	if converted {
		s.Logger.Info("waitlist entry converted",
			zap.String("userID", customerID), zap.String("specialistID", specialistID))
	}
}

// PromoteForSlot walks the WAITING queue in fairness order and notifies the
// first entry whose service fits the slot and whose time hint matches.
func (s *DefaultWaitlistService) PromoteForSlot(ctx context.Context, specialistID, date string, startMinute, durationMinutes int) error {
	entries, err := s.Repo.Waiting(ctx, specialistID, date)
	if err != nil {
		return err
	}
	for i := range entries {
		entry := &entries[i]
		if !s.slotMatches(ctx, entry, startMinute, durationMinutes) {
			continue
		}
		notified, err := s.Repo.MarkNotified(ctx, entry.ID,
			time.Now().Add(s.NotifyDeadline), startMinute, durationMinutes)
		if err != nil {
			return err
		}
		if !notified {
			continue // raced with another promotion or a conversion
		}
		if s.Notifier != nil {
			s.Notifier.Notify(ctx, entry.UserID, "waitlist_slot_available",
				fmt.Sprintf("A slot opened up on %s", date), map[string]string{
					"specialist_id": specialistID,
					"date":          date,
					"start_minute":  fmt.Sprintf("%d", startMinute),
				})
		}
		return nil
	}
	return nil
}

func (s *DefaultWaitlistService) slotMatches(ctx context.Context, entry *models.WaitlistEntry, startMinute, durationMinutes int) bool {
	if entry.PreferredTimeHint != nil {
		hint := *entry.PreferredTimeHint
		if hint < startMinute || hint >= startMinute+durationMinutes {
			return false
		}
	}
	svc, err := s.Catalog.GetService(ctx, entry.ServiceID)
	if err != nil {
		s.Logger.Warn("waitlist service lookup failed",
			zap.String("entryID", entry.ID), zap.Error(err))
		return false
	}
	return svc.DurationMinutes <= durationMinutes
}

func (s *DefaultWaitlistService) SweepNotifications(ctx context.Context) error {
	entries, err := s.Repo.FindNotifiedPastDeadline(ctx, time.Now())
	if err != nil {
		return err
	}
	for i := range entries {
		entry := &entries[i]
		reverted, err := s.Repo.RevertNotified(ctx, entry.ID)
		if err != nil {
			s.Logger.Error("waitlist revert failed", zap.String("entryID", entry.ID), zap.Error(err))
			continue
		}
		if !reverted {
			continue // converted just in time
		}
		// The reverted entry now sorts behind untried ones, so the slot goes to
		// the next in line.
		if entry.NotifiedSlotStart != nil && entry.NotifiedSlotDuration != nil {
			if err := s.PromoteForSlot(ctx, entry.SpecialistID, entry.PreferredDate,
				*entry.NotifiedSlotStart, *entry.NotifiedSlotDuration); err != nil {
				s.Logger.Error("waitlist re-promotion failed",
					zap.String("entryID", entry.ID), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *DefaultWaitlistService) ExpireStale(ctx context.Context) error {
	expired, err := s.Repo.ExpirePastDates(ctx, time.Now().Format("2006-01-02"))
	if err != nil {
		return err
	}
	if expired > 0 {
		s.Logger.Info("expired stale waitlist entries", zap.Int64("count", expired))
	}
	return nil
}
