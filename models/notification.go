package models

import "time"

// Notification is an outbound message to a user or specialist. Delivery is
// fire-and-forget; failures never roll back booking state.
type Notification struct {
	ID          string            `json:"id"`
	RecipientID string            `json:"recipient_id"`
	Type        string            `json:"type"`
	Message     string            `json:"message"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
