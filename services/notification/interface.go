package notification

import (
	"context"
	"time"

	"appointly/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService delivers outbound messages. Delivery is best-effort;
// callers never block booking or payment flows on it.
type NotificationService interface {
	Notify(ctx context.Context, recipientID, notifType, message string, data map[string]string)
}

// DefaultNotificationService logs notifications and hands them to an optional
// sender. Without a sender it acts as a structured-log sink, which is enough
// for the core flows and for tests.
type DefaultNotificationService struct {
	Logger *zap.Logger
	// Sender pushes to the real delivery channel (push, SMS, email). Nil means
	// log-only.
	Sender func(ctx context.Context, n models.Notification) error
}

func (s *DefaultNotificationService) Notify(ctx context.Context, recipientID, notifType, message string, data map[string]string) {
	n := models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Type:        notifType,
		Message:     message,
		Data:        data,
		CreatedAt:   time.Now(),
	}
	s.Logger.Info("notification",
		zap.String("recipientID", n.RecipientID),
		zap.String("type", n.Type),
		zap.String("message", n.Message),
	)
	if s.Sender == nil {
		return
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Sender(sendCtx, n); err != nil {
			s.Logger.Warn("notification delivery failed",
				zap.String("recipientID", n.RecipientID),
				zap.String("type", n.Type),
				zap.Error(err),
			)
		}
	}()
}
