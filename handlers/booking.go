package handlers

import (
	"errors"
	"net/http"
	"time"

	"appointly/services/booking"
	"appointly/services/payment"
	"appointly/services/scheduling"
	"appointly/utils"

	"github.com/gin-gonic/gin"
)

// CreateBookingHandler reserves a slot and opens its payment intent.
// A lost slot race comes back as 409 with the conflicting booking IDs and the
// remaining slots for that date, so clients can re-offer immediately.
func CreateBookingHandler(svc booking.BookingService, engine scheduling.SchedulingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req booking.CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}

		b, intent, err := svc.CreateBooking(c.Request.Context(), req)
		if err != nil {
			var conflict *booking.ConflictError
			if errors.As(err, &conflict) {
				alternatives := nextAvailableSlots(c, engine, req.SpecialistID, req.ServiceID, req.Date)
				c.JSON(http.StatusConflict, gin.H{
					"message":                 "Slot already booked",
					"conflicting_booking_ids": conflict.ConflictingBookingIDs,
					"available_slots":         alternatives,
				})
				return
			}
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"booking": b, "payment_intent": intent})
	}
}

func nextAvailableSlots(c *gin.Context, engine scheduling.SchedulingEngine, specialistID, serviceID, date string) interface{} {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil
	}
	slots, err := engine.AvailableSlots(c.Request.Context(), specialistID, serviceID, day)
	if err != nil {
		return nil
	}
	return slots
}

// GetBookingHandler returns one booking by ID.
func GetBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svc.GetBooking(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.JSONError(c, http.StatusNotFound, "Booking not found", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"booking": b})
	}
}

// ConfirmBookingHandler is the specialist accepting a paid booking.
func ConfirmBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Confirm(c.Request.Context(), c.Param("id")); err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
	}
}

// RejectBookingHandler is the specialist declining a paid booking.
func RejectBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&body)
		if err := svc.Reject(c.Request.Context(), c.Param("id"), body.Reason); err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "rejected"})
	}
}

// CancelBookingHandler cancels an active booking and triggers its refund.
func CancelBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	}
}

// RescheduleBookingHandler moves a booking to a new slot.
func RescheduleBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Date        string `json:"date" binding:"required"`
			StartMinute int    `json:"start_minute"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		b, err := svc.Reschedule(c.Request.Context(), c.Param("id"), body.Date, body.StartMinute)
		if err != nil {
			var conflict *booking.ConflictError
			if errors.As(err, &conflict) {
				c.JSON(http.StatusConflict, gin.H{
					"message":                 "Slot already booked",
					"conflicting_booking_ids": conflict.ConflictingBookingIDs,
				})
				return
			}
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"booking": b})
	}
}

// StartBookingHandler marks the appointment as underway.
func StartBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Start(c.Request.Context(), c.Param("id")); err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "in_progress"})
	}
}

// CompleteBookingHandler finishes the appointment and accrues the payout.
func CompleteBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			SpecialistNotes string `json:"specialist_notes"`
		}
		_ = c.ShouldBindJSON(&body)
		if err := svc.Complete(c.Request.Context(), c.Param("id"), body.SpecialistNotes); err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed"})
	}
}

// NoShowBookingHandler records a customer no-show.
func NoShowBookingHandler(svc booking.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.MarkNoShow(c.Request.Context(), c.Param("id")); err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "no_show"})
	}
}

// respondBookingError maps service errors onto HTTP statuses.
func respondBookingError(c *gin.Context, err error) {
	var invalid *booking.InvalidTransitionError
	var policy *booking.PolicyError
	var funds *payment.InsufficientFundsError
	var rail *payment.ExternalRailError

	switch {
	case errors.As(err, &invalid):
		utils.JSONError(c, http.StatusConflict, "Invalid booking transition", invalid.Error())
	case errors.As(err, &policy):
		utils.JSONError(c, http.StatusBadRequest, policy.Code, policy.Message)
	case errors.As(err, &funds):
		utils.JSONError(c, http.StatusPaymentRequired, "Insufficient wallet balance", funds.Error())
	case errors.As(err, &rail):
		utils.JSONError(c, http.StatusBadGateway, "Payment provider unavailable", rail.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Booking operation failed", err.Error())
	}
}
