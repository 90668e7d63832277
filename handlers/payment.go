package handlers

import (
	"errors"
	"net/http"

	"appointly/services/payment"
	"appointly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentStatusHandler is the client polling endpoint for an intent.
func PaymentStatusHandler(orch payment.PaymentOrchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		intent, err := orch.GetPaymentStatus(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.JSONError(c, http.StatusNotFound, "Payment intent not found", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"payment_intent": intent})
	}
}

// webhookEvent is the normalized payload the rail adapters' webhook relays
// post to us: the external reference plus a coarse outcome.
type webhookEvent struct {
	Reference string `json:"reference" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// PaymentWebhookHandler ingests provider callbacks. Confirmation is
// idempotent: replays and double deliveries return 200 without side effects.
func PaymentWebhookHandler(orch payment.PaymentOrchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var event webhookEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", err.Error())
			return
		}
		logger := utils.GetLogger()

		switch event.Status {
		case "completed", "succeeded", "confirmed":
			_, err := orch.ConfirmByReference(c.Request.Context(), event.Reference)
			if err != nil {
				var dup *payment.DuplicateConfirmationError
				if errors.As(err, &dup) {
					logger.Info("duplicate payment confirmation ignored",
						zap.String("reference", event.Reference))
					c.JSON(http.StatusOK, gin.H{"status": "already_processed"})
					return
				}
				var expired *payment.PaymentExpiredError
				if errors.As(err, &expired) {
					utils.JSONError(c, http.StatusGone, "Payment intent expired", err.Error())
					return
				}
				utils.JSONError(c, http.StatusInternalServerError, "Failed to process confirmation", err.Error())
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
		case "failed", "cancelled", "canceled":
			if err := orch.FailByReference(c.Request.Context(), event.Reference); err != nil {
				utils.JSONError(c, http.StatusInternalServerError, "Failed to process failure", err.Error())
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "failed"})
		default:
			// Intermediate provider states carry no transition for us.
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		}
	}
}
