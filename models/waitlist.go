package models

import "time"

// WaitlistStatus is the state of a waitlist entry.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "WAITING"
	WaitlistNotified  WaitlistStatus = "NOTIFIED"
	WaitlistExpired   WaitlistStatus = "EXPIRED"
	WaitlistConverted WaitlistStatus = "CONVERTED"
)

// WaitlistEntry records a user's interest in a fully booked day. Entries are
// promoted oldest-first when a matching slot frees up.
type WaitlistEntry struct {
	ID                string         `bson:"id" json:"id"`
	UserID            string         `bson:"user_id" json:"user_id"`
	SpecialistID      string         `bson:"specialist_id" json:"specialist_id"`
	ServiceID         string         `bson:"service_id" json:"service_id"`
	PreferredDate     string         `bson:"preferred_date" json:"preferred_date"`
	PreferredTimeHint *int           `bson:"preferred_time_hint,omitempty" json:"preferred_time_hint,omitempty"` // minutes from midnight
	Notes             string         `bson:"notes,omitempty" json:"notes,omitempty"`
	Status            WaitlistStatus `bson:"status" json:"status"`
	NotifyDeadline    *time.Time     `bson:"notify_deadline,omitempty" json:"notify_deadline,omitempty"`
	// NotifiedSlotStart/NotifiedSlotDuration pin the freed slot this entry was
	// told about, so a lapsed deadline can re-offer the same slot to the next
	// entry in line.
	NotifiedSlotStart    *int `bson:"notified_slot_start,omitempty" json:"notified_slot_start,omitempty"`
	NotifiedSlotDuration *int `bson:"notified_slot_duration,omitempty" json:"notified_slot_duration,omitempty"`
	// MissedNotifications counts notification deadlines this entry let lapse;
	// promotion orders untried entries ahead of ones that already missed.
	MissedNotifications int       `bson:"missed_notifications" json:"missed_notifications"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
}
