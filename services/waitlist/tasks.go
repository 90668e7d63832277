package waitlist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeWaitlistPromote asks a worker to promote waitlist entries for a freed
// slot.
const TypeWaitlistPromote = "waitlist:promote"

// PromotePayload identifies the freed slot.
type PromotePayload struct {
	SpecialistID    string `json:"specialist_id"`
	Date            string `json:"date"`
	StartMinute     int    `json:"start_minute"`
	DurationMinutes int    `json:"duration_minutes"`
}

// NewPromoteTask builds the asynq task for a freed slot.
func NewPromoteTask(p PromotePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode promote payload: %w", err)
	}
	return asynq.NewTask(TypeWaitlistPromote, payload, asynq.MaxRetry(3)), nil
}

// HandlePromoteTask is the asynq handler for TypeWaitlistPromote.
func (s *DefaultWaitlistService) HandlePromoteTask(ctx context.Context, t *asynq.Task) error {
	var p PromotePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to decode promote payload: %w", err)
	}
	return s.PromoteForSlot(ctx, p.SpecialistID, p.Date, p.StartMinute, p.DurationMinutes)
}
