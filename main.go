package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appointly/config"
	appcron "appointly/cron"
	"appointly/database"
	availabilityRepo "appointly/database/repository/availability"
	bookingRepoPkg "appointly/database/repository/booking"
	catalogRepoPkg "appointly/database/repository/catalog"
	paymentRepoPkg "appointly/database/repository/payment"
	waitlistRepoPkg "appointly/database/repository/waitlist"
	walletRepoPkg "appointly/database/repository/wallet"
	"appointly/middleware"
	"appointly/models"
	"appointly/routes"
	"appointly/services/booking"
	"appointly/services/notification"
	"appointly/services/payment"
	"appointly/services/payment/rails"
	"appointly/services/scheduling"
	"appointly/services/waitlist"
	"appointly/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitLockClient()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	walletRepo := walletRepoPkg.NewMongoWalletRepo()
	paymentRepo := paymentRepoPkg.NewMongoPaymentIntentRepo()
	availRepo := availabilityRepo.NewMongoAvailabilityRepo()
	catalogRepo := catalogRepoPkg.NewMongoCatalogRepo()
	waitlistRepo := waitlistRepoPkg.NewMongoWaitlistRepo()

	locker := utils.NewLocker(utils.GetLockClient())

	// services.
	notificationService := &notification.DefaultNotificationService{Logger: logger}

	ledgerService := &payment.DefaultLedgerService{Repo: walletRepo}

	intentTTL := time.Duration(config.AppConfig.PaymentIntentTTLMinutes) * time.Minute
	railMap := map[models.PaymentRail]rails.Rail{
		models.RailCard: rails.NewCardRail(intentTTL),
	}
	if config.AppConfig.PayPalClientID != "" {
		paypalRail, err := rails.NewPayPalRail(
			config.AppConfig.PayPalClientID,
			config.AppConfig.PayPalSecret,
			config.AppConfig.PayPalAPIBase,
			intentTTL,
		)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize paypal rail: %v", err)
		}
		railMap[models.RailPayPal] = paypalRail
	}
	if config.AppConfig.CryptoChargeAPIKey != "" {
		railMap[models.RailCrypto] = rails.NewCryptoRail(
			config.AppConfig.CryptoChargeAPIKey,
			config.AppConfig.CryptoChargeAPIURL,
		)
	}

	orchestrator := &payment.DefaultPaymentOrchestrator{
		Intents:   paymentRepo,
		Ledger:    ledgerService,
		Rails:     railMap,
		RailOrder: []models.PaymentRail{models.RailCard, models.RailPayPal, models.RailCrypto},
		Idem:      locker,
		IntentTTL: intentTTL,
		Logger:    logger,
	}

	schedulingEngine := &scheduling.DefaultSchedulingEngine{
		Availability: availRepo,
		Bookings:     bookingRepo,
		Catalog:      catalogRepo,
		Granularity:  config.AppConfig.SlotGranularityMinutes,
	}

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	waitlistService := &waitlist.DefaultWaitlistService{
		Repo:           waitlistRepo,
		Catalog:        catalogRepo,
		Notifier:       notificationService,
		Queue:          queueClient,
		NotifyDeadline: time.Duration(config.AppConfig.WaitlistDeadlineMinutes) * time.Minute,
		Logger:         logger,
	}

	bookingService := &booking.DefaultBookingService{
		Repo:         bookingRepo,
		Catalog:      catalogRepo,
		Availability: availRepo,
		Locker:       locker,
		Payments:     orchestrator,
		Ledger:       ledgerService,
		Waitlist:     waitlistService,
		Notifier:     notificationService,
		Policy: booking.Policy{
			CancellationWindow: time.Duration(config.AppConfig.CancellationWindowHours) * time.Hour,
			ForfeitureSplit:    config.AppConfig.DepositForfeitureSplit,
			CommissionRate:     config.AppConfig.SpecialistCommissionRate,
		},
		Logger: logger,
	}
	// The orchestrator drives booking transitions; wired here to close the loop.
	orchestrator.Bookings = bookingService

	handlerBundle := &routes.HandlerBundle{
		Bookings:    bookingService,
		Scheduling:  schedulingEngine,
		Payments:    orchestrator,
		Ledger:      ledgerService,
		Waitlist:    waitlistService,
		BookingDays: config.AppConfig.BookingWindowDays,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Background workers.
	sweeps := appcron.StartSweeps(orchestrator, waitlistService)
	worker := appcron.InitWaitlistWorker(waitlistService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	sweeps.Stop()
	worker.Shutdown()
	queueClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
