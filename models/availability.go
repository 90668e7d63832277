package models

import "time"

// AvailabilityWindow describes a working interval for a specialist, either as
// a weekly recurrence (DayOfWeek set, Date empty) or an explicit date override.
// Start and End are minutes from midnight; End is exclusive.
type AvailabilityWindow struct {
	SpecialistID       string `bson:"specialist_id" json:"specialist_id"`
	DayOfWeek          int    `bson:"day_of_week" json:"day_of_week"` // 0 = Sunday
	Date               string `bson:"date,omitempty" json:"date,omitempty"`
	StartMinute        int    `bson:"start_minute" json:"start_minute"`
	EndMinute          int    `bson:"end_minute" json:"end_minute"`
	GranularityMinutes int    `bson:"granularity_minutes,omitempty" json:"granularity_minutes,omitempty"`
}

// AvailableSlot is a candidate booking start time on a given date.
// FreeResources counts how many specialists/resources remain free at this
// time in multi-resource contexts; 1 flags a "last slot" hint for clients.
type AvailableSlot struct {
	Date          string    `json:"date"`
	StartMinute   int       `json:"start_minute"`
	Start         time.Time `json:"start"`
	FreeResources int       `json:"free_resources"`
}
