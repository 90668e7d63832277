package handlers

import (
	"net/http"

	"appointly/services/waitlist"
	"appointly/utils"

	"github.com/gin-gonic/gin"
)

// JoinWaitlistHandler queues a user for a fully booked day.
func JoinWaitlistHandler(svc waitlist.WaitlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req waitlist.JoinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		entry, err := svc.Join(c.Request.Context(), req)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Failed to join waitlist", err.Error())
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entry": entry})
	}
}
