package cron

import (
	"context"
	"fmt"
	"time"

	"appointly/config"
	"appointly/services/payment"
	"appointly/services/waitlist"
	"appointly/utils"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartSweeps schedules the periodic maintenance jobs: payment intent expiry
// and waitlist deadline/staleness handling. Returns the scheduler so main can
// stop it on shutdown.
func StartSweeps(orch payment.PaymentOrchestrator, wl waitlist.WaitlistService) *cron.Cron {
	logger := utils.GetLogger()
	c := cron.New()

	paymentSpec := fmt.Sprintf("@every %dm", config.AppConfig.PaymentSweepIntervalMins)
	if _, err := c.AddFunc(paymentSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		expired, err := orch.SweepExpired(ctx)
		if err != nil {
			logger.Error("payment expiry sweep failed", zap.Error(err))
			return
		}
		if expired > 0 {
			logger.Info("payment expiry sweep", zap.Int("expired", expired))
		}
	}); err != nil {
		logger.Sugar().Fatalf("cron: failed to schedule payment sweep: %v", err)
	}

	waitlistSpec := fmt.Sprintf("@every %dm", config.AppConfig.WaitlistSweepIntervalMins)
	if _, err := c.AddFunc(waitlistSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := wl.SweepNotifications(ctx); err != nil {
			logger.Error("waitlist notification sweep failed", zap.Error(err))
		}
		if err := wl.ExpireStale(ctx); err != nil {
			logger.Error("waitlist expiry sweep failed", zap.Error(err))
		}
	}); err != nil {
		logger.Sugar().Fatalf("cron: failed to schedule waitlist sweep: %v", err)
	}

	c.Start()
	return c
}

// InitWaitlistWorker runs the asynq worker that drains slot promotion tasks.
func InitWaitlistWorker(wl *waitlist.DefaultWaitlistService) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(waitlist.TypeWaitlistPromote, wl.HandlePromoteTask)

	go func() {
		logger.Info("starting waitlist worker")
		if err := srv.Run(mux); err != nil {
			logger.Sugar().Fatalf("cron: waitlist worker failed: %v", err)
		}
	}()
	return srv
}
