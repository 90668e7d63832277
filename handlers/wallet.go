package handlers

import (
	"net/http"

	"appointly/services/payment"
	"appointly/utils"

	"github.com/gin-gonic/gin"
)

// WalletHandler returns a user's balance and ledger history.
func WalletHandler(ledger payment.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userID")
		balance, err := ledger.Balance(c.Request.Context(), userID)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch balance", err.Error())
			return
		}
		entries, err := ledger.Entries(c.Request.Context(), userID)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch ledger entries", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": balance, "entries": entries})
	}
}
