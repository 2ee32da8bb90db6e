package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/app"
	"github.com/Mattie1391/sportify-backend/internal/config"
	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/scheduler"
	"github.com/Mattie1391/sportify-backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "compute last month's revenue share and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer c.Close()

	loc, _ := cfg.Service.Location()

	revenueShare := func(ctx context.Context, now time.Time) error {
		result, err := c.RevenueShare.Run(ctx, now)
		if errors.Is(err, domainErrors.ErrPayoutPeriodComputed) || errors.Is(err, domainErrors.ErrRevenueShareLocked) {
			zapLogger.Info("Revenue share skipped", zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		if result.Run == nil {
			zapLogger.Info("Revenue share had nothing to distribute",
				zap.String("period", result.Period),
				zap.String("reason", result.SkipReason))
		}
		return nil
	}

	if *once {
		runCtx, runCancel := context.WithTimeout(ctx, cfg.RevenueShare.RunTimeout)
		defer runCancel()
		if err := revenueShare(runCtx, time.Now().In(loc)); err != nil {
			zapLogger.Fatal("Revenue share failed", zap.Error(err))
		}
		return
	}

	sched := scheduler.New(loc, cfg.RevenueShare.RunTimeout, zapLogger)
	if err := sched.Add("revenue_share", cfg.RevenueShare.Cron, revenueShare); err != nil {
		zapLogger.Fatal("Failed to schedule revenue share", zap.Error(err))
	}
	sched.Start()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Stopping scheduler...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)
}
