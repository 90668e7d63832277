package handlers

import (
	"net/http"
	"strconv"
	"time"

	"appointly/services/scheduling"
	"appointly/utils"

	"github.com/gin-gonic/gin"
)

// AvailableDatesHandler lists upcoming dates with at least one bookable slot.
func AvailableDatesHandler(engine scheduling.SchedulingEngine, defaultDays int) gin.HandlerFunc {
	return func(c *gin.Context) {
		specialistID := c.Param("specialistID")
		serviceID := c.Query("service_id")
		if serviceID == "" {
			utils.JSONError(c, http.StatusBadRequest, "Missing service", "service_id query parameter is required")
			return
		}
		days := defaultDays
		if raw := c.Query("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 60 {
				utils.JSONError(c, http.StatusBadRequest, "Invalid days", "days must be an integer between 1 and 60")
				return
			}
			days = parsed
		}

		dates, err := engine.AvailableDates(c.Request.Context(), specialistID, serviceID, days)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to compute availability", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"dates": dates})
	}
}

// AvailableSlotsHandler lists bookable start times for one date.
func AvailableSlotsHandler(engine scheduling.SchedulingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		specialistID := c.Param("specialistID")
		serviceID := c.Query("service_id")
		if serviceID == "" {
			utils.JSONError(c, http.StatusBadRequest, "Missing service", "service_id query parameter is required")
			return
		}
		date, err := time.Parse("2006-01-02", c.Query("date"))
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid date", "date must be formatted as YYYY-MM-DD")
			return
		}

		slots, err := engine.AvailableSlots(c.Request.Context(), specialistID, serviceID, date)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to compute availability", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"slots": slots})
	}
}
