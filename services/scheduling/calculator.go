package scheduling

import (
	"sort"
	"time"

	"appointly/models"
)

// ComputeAvailableSlots enumerates candidate start times for a service of the
// given duration on one date. A grid point t (stepped at the window's
// granularity) is a valid start iff [t, t+duration) lies entirely inside a
// working window and intersects no existing active booking. Start times
// already in the past are excluded. The result is a snapshot: staleness is
// expected and resolved by the reservation path at commit time.
func ComputeAvailableSlots(
	day time.Time,
	windows []models.AvailabilityWindow,
	bookings []models.Booking,
	durationMinutes int,
	defaultGranularity int,
	now time.Time,
) []models.AvailableSlot {
	if durationMinutes <= 0 || len(windows) == 0 {
		return nil
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dateStr := midnight.Format("2006-01-02")

	// free counts hosting windows per grid start; a second window covering the
	// same start means another resource is free at that time.
	free := make(map[int]int)

	for _, w := range windows {
		gran := w.GranularityMinutes
		if gran <= 0 {
			gran = defaultGranularity
		}
		if gran <= 0 {
			gran = 15
		}

		// The end time need not fall on a grid point; only the start does.
		for t := w.StartMinute; t+durationMinutes <= w.EndMinute; t += gran {
			absStart := midnight.Add(time.Duration(t) * time.Minute)
			if absStart.Before(now) {
				continue
			}

			conflict := false
			for _, b := range bookings {
				if b.Overlaps(absStart, durationMinutes) {
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}
			free[t]++
		}
	}

	slots := make([]models.AvailableSlot, 0, len(free))
	for t, count := range free {
		slots = append(slots, models.AvailableSlot{
			Date:          dateStr,
			StartMinute:   t,
			Start:         midnight.Add(time.Duration(t) * time.Minute),
			FreeResources: count,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartMinute < slots[j].StartMinute
	})
	return slots
}

// WindowContaining returns the window that fully contains [startMinute,
// startMinute+duration), or false when none does.
func WindowContaining(windows []models.AvailabilityWindow, startMinute, durationMinutes int) (models.AvailabilityWindow, bool) {
	for _, w := range windows {
		if startMinute >= w.StartMinute && startMinute+durationMinutes <= w.EndMinute {
			return w, true
		}
	}
	return models.AvailabilityWindow{}, false
}
