package scheduling

import (
	"testing"
	"time"

	"appointly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

// longAgo keeps the "past start" exclusion out of the way.
var longAgo = testDay.AddDate(0, 0, -1)

func window(start, end int) models.AvailabilityWindow {
	return models.AvailabilityWindow{
		SpecialistID:       "sp-1",
		Date:               testDay.Format("2006-01-02"),
		StartMinute:        start,
		EndMinute:          end,
		GranularityMinutes: 15,
	}
}

func bookingAt(startMinute, duration int) models.Booking {
	return models.Booking{
		ID:              "bk-existing",
		SpecialistID:    "sp-1",
		ScheduledAt:     testDay.Add(time.Duration(startMinute) * time.Minute),
		DurationMinutes: duration,
		Status:          models.BookingConfirmed,
	}
}

func startMinutes(slots []models.AvailableSlot) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartMinute)
	}
	return out
}

func TestComputeAvailableSlotsServiceLongerThanWindow(t *testing.T) {
	// 90-minute service cannot start anywhere inside a one-hour window.
	slots := ComputeAvailableSlots(testDay, []models.AvailabilityWindow{window(540, 600)}, nil, 90, 15, longAgo)
	assert.Empty(t, slots)
}

func TestComputeAvailableSlotsMustEndInsideWindow(t *testing.T) {
	// 09:00-11:00 with a 90-minute service: the last valid start is 09:30.
	slots := ComputeAvailableSlots(testDay, []models.AvailabilityWindow{window(540, 660)}, nil, 90, 15, longAgo)
	assert.Equal(t, []int{540, 555, 570}, startMinutes(slots))
}

func TestComputeAvailableSlotsSkipsBookedIntervals(t *testing.T) {
	// 09:00-12:00 window, 30-minute service, existing booking 10:00-10:30.
	slots := ComputeAvailableSlots(testDay,
		[]models.AvailabilityWindow{window(540, 720)},
		[]models.Booking{bookingAt(600, 30)},
		30, 15, longAgo)
	assert.Equal(t, []int{540, 555, 570, 630, 645, 660, 675, 690}, startMinutes(slots))
}

func TestComputeAvailableSlotsBackToBackAllowed(t *testing.T) {
	// Half-open intervals: a service may start exactly when another ends.
	slots := ComputeAvailableSlots(testDay,
		[]models.AvailabilityWindow{window(540, 630)},
		[]models.Booking{bookingAt(540, 30)},
		30, 15, longAgo)
	assert.Equal(t, []int{570, 585, 600}, startMinutes(slots))
}

func TestComputeAvailableSlotsExcludesPastStarts(t *testing.T) {
	now := testDay.Add(10*time.Hour + 5*time.Minute) // 10:05 on the day itself
	slots := ComputeAvailableSlots(testDay, []models.AvailabilityWindow{window(540, 720)}, nil, 30, 15, now)
	require.NotEmpty(t, slots)
	assert.Equal(t, 615, slots[0].StartMinute) // 10:15 is the first future grid point
}

func TestComputeAvailableSlotsCountsFreeResources(t *testing.T) {
	// Two overlapping windows mean two resources are free where they overlap.
	slots := ComputeAvailableSlots(testDay,
		[]models.AvailabilityWindow{window(540, 600), window(540, 660)},
		nil, 30, 15, longAgo)
	require.NotEmpty(t, slots)

	byStart := make(map[int]int)
	for _, s := range slots {
		byStart[s.StartMinute] = s.FreeResources
	}
	assert.Equal(t, 2, byStart[540])
	assert.Equal(t, 1, byStart[600]) // only the longer window can host 10:00
}

func TestComputeAvailableSlotsUsesDefaultGranularity(t *testing.T) {
	w := window(540, 630)
	w.GranularityMinutes = 0
	slots := ComputeAvailableSlots(testDay, []models.AvailabilityWindow{w}, nil, 30, 30, longAgo)
	assert.Equal(t, []int{540, 570, 600}, startMinutes(slots))
}

func TestComputeAvailableSlotsZeroDuration(t *testing.T) {
	assert.Nil(t, ComputeAvailableSlots(testDay, []models.AvailabilityWindow{window(540, 600)}, nil, 0, 15, longAgo))
}

func TestWindowContaining(t *testing.T) {
	windows := []models.AvailabilityWindow{window(540, 660)}

	_, ok := WindowContaining(windows, 540, 60)
	assert.True(t, ok)

	_, ok = WindowContaining(windows, 630, 60)
	assert.False(t, ok, "interval runs past the window end")

	_, ok = WindowContaining(windows, 480, 60)
	assert.False(t, ok, "interval starts before the window")
}
