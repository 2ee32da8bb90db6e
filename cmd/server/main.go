package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/Mattie1391/sportify-backend/internal/adapter/handler/http"
	"github.com/Mattie1391/sportify-backend/internal/app"
	"github.com/Mattie1391/sportify-backend/internal/config"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/database"
	grpcServer "github.com/Mattie1391/sportify-backend/internal/infrastructure/grpc"
	httpServer "github.com/Mattie1391/sportify-backend/internal/infrastructure/http"
	"github.com/Mattie1391/sportify-backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
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

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer c.Close()

	// Run database migrations
	if err := database.Migrate(c.DB, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger, func(ctx context.Context) error {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Handlers{
		Plans:        handlers.NewPlansHandler(c.Plans, zapLogger),
		Subscription: handlers.NewSubscriptionHandler(zapLogger, c.Subscription),
		Webhook:      handlers.NewWebhookHandler(c.Webhooks, zapLogger),
		Payout:       handlers.NewPayoutHandler(c.RevenueShare, zapLogger),
	})

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 15*time.Second)
	defer shutdownCancel()

	// Shutdown servers
	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
