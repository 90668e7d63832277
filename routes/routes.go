package routes

import (
	"net/http"
	"time"

	"appointly/handlers"
	"appointly/services/booking"
	"appointly/services/payment"
	"appointly/services/scheduling"
	"appointly/services/waitlist"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle carries the wired services the routes need.
type HandlerBundle struct {
	Bookings    booking.BookingService
	Scheduling  scheduling.SchedulingEngine
	Payments    payment.PaymentOrchestrator
	Ledger      payment.LedgerService
	Waitlist    waitlist.WaitlistService
	BookingDays int
}

// RegisterRoutes wires up all endpoints.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterWaitlistRoutes(r, hb)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Appointly"})
	})
}

// RegisterAvailabilityRoutes registers the slot discovery endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/availability")
	{
		api.GET("/:specialistID/dates", handlers.AvailableDatesHandler(hb.Scheduling, hb.BookingDays))
		api.GET("/:specialistID/slots", handlers.AvailableSlotsHandler(hb.Scheduling))
	}
}

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", handlers.CreateBookingHandler(hb.Bookings, hb.Scheduling))
		api.GET("/:id", handlers.GetBookingHandler(hb.Bookings))
		api.POST("/:id/confirm", handlers.ConfirmBookingHandler(hb.Bookings))
		api.POST("/:id/reject", handlers.RejectBookingHandler(hb.Bookings))
		api.POST("/:id/cancel", handlers.CancelBookingHandler(hb.Bookings))
		api.POST("/:id/reschedule", handlers.RescheduleBookingHandler(hb.Bookings))
		api.POST("/:id/start", handlers.StartBookingHandler(hb.Bookings))
		api.POST("/:id/complete", handlers.CompleteBookingHandler(hb.Bookings))
		api.POST("/:id/no-show", handlers.NoShowBookingHandler(hb.Bookings))
	}
}

// RegisterPaymentRoutes registers payment polling, webhooks and wallets.
func RegisterPaymentRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.GET("/:id/status", handlers.PaymentStatusHandler(hb.Payments))
		api.POST("/webhook/:rail", handlers.PaymentWebhookHandler(hb.Payments))
	}
	r.GET("/api/wallet/:userID", handlers.WalletHandler(hb.Ledger))
}

// RegisterWaitlistRoutes registers the waitlist endpoint.
func RegisterWaitlistRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.POST("/api/waitlist", handlers.JoinWaitlistHandler(hb.Waitlist))
}
