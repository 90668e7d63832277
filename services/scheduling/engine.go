package scheduling

import (
	"context"
	"fmt"
	"time"

	availabilityRepo "appointly/database/repository/availability"
	bookingRepo "appointly/database/repository/booking"
	catalogRepo "appointly/database/repository/catalog"
	"appointly/models"
)

// SchedulingEngine computes bookable start times for a specialist.
type SchedulingEngine interface {
	// AvailableSlots computes candidate start times for the service on the
	// given date. No side effects; safe to call repeatedly.
	AvailableSlots(ctx context.Context, specialistID, serviceID string, date time.Time) ([]models.AvailableSlot, error)
	// AvailableDates returns the dates within the booking window that still
	// have at least one bookable slot for the service.
	AvailableDates(ctx context.Context, specialistID, serviceID string, days int) ([]string, error)
}

// DefaultSchedulingEngine is the production implementation.
type DefaultSchedulingEngine struct {
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Catalog      catalogRepo.CatalogRepository
	// Granularity is the default slot step in minutes when a window does not
	// carry its own.
	Granularity int
}

func (se *DefaultSchedulingEngine) AvailableSlots(ctx context.Context, specialistID, serviceID string, date time.Time) ([]models.AvailableSlot, error) {
	svc, err := se.Catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	windows, err := se.Availability.WindowsFor(ctx, specialistID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability windows: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	bookings, err := se.Bookings.FindActiveBetween(ctx, specialistID, midnight, midnight.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load existing bookings: %w", err)
	}

	return ComputeAvailableSlots(midnight, windows, bookings, svc.DurationMinutes, se.Granularity, time.Now()), nil
}

func (se *DefaultSchedulingEngine) AvailableDates(ctx context.Context, specialistID, serviceID string, days int) ([]string, error) {
	now := time.Now()
	var dates []string
	for offset := 0; offset < days; offset++ {
		day := now.AddDate(0, 0, offset)
		slots, err := se.AvailableSlots(ctx, specialistID, serviceID, day)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			dates = append(dates, day.Format("2006-01-02"))
		}
	}
	return dates, nil
}
