package models

// Service is a bookable offering with a fixed duration and price.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	SpecialistID    string  `bson:"specialist_id" json:"specialist_id"`
	Name            string  `bson:"name" json:"name"`
	DurationMinutes int     `bson:"duration_minutes" json:"duration_minutes"`
	Price           float64 `bson:"price" json:"price"`
	Currency        string  `bson:"currency" json:"currency"`
}

// Specialist is the provider side of a booking.
type Specialist struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	// AutoConfirm skips the manual PENDING -> CONFIRMED acceptance step.
	AutoConfirm bool `bson:"auto_confirm" json:"auto_confirm"`
}
