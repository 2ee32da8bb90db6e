// Package app assembles the billing service from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Mattie1391/sportify-backend/internal/adapter/messaging"
	"github.com/Mattie1391/sportify-backend/internal/config"
	"github.com/Mattie1391/sportify-backend/internal/domain/event"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/database"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/lock"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/provider/ecpay"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	pkgMessaging "github.com/Mattie1391/sportify-backend/pkg/messaging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds the long-lived dependencies shared by the binaries
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Repos  *database.Repositories

	Gateway      *ecpay.Client
	Codec        *ecpay.SignatureCodec
	Publisher    event.Publisher
	Ledger       *usecase.SubscriptionLedger
	Webhooks     *usecase.WebhookProcessor
	Subscription *usecase.SubscriptionService
	Plans        *usecase.PlanService
	RevenueShare *usecase.RevenueShareCalculator
}

// New connects to Postgres and Redis and builds every service
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	loc, err := cfg.Service.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid service timezone: %w", err)
	}
	rate, err := cfg.RevenueShare.Rate()
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	rdb, err := pkgMessaging.NewClient(ctx, cfg.Redis)
	if err != nil {
		_ = database.Close(db, logger)
		return nil, err
	}

	repos := database.NewRepositories(db, logger)
	publisher := messaging.NewEventPublisher(pkgMessaging.NewRedisClient(rdb), cfg.Events.Channel, logger)
	locker := lock.NewRedsyncLocker(rdb, logger)

	codec := ecpay.NewSignatureCodec(cfg.ECPay.HashKey, cfg.ECPay.HashIV)
	gateway := ecpay.NewClient(ecpay.Config{
		MerchantID:      cfg.ECPay.MerchantID,
		CheckoutURL:     cfg.ECPay.CheckoutURL,
		PeriodActionURL: cfg.ECPay.PeriodActionURL,
		ReturnURL:       cfg.ECPay.ReturnURL,
		PeriodReturnURL: cfg.ECPay.PeriodReturnURL,
		ClientBackURL:   cfg.ECPay.ClientBackURL,
		ExecTimes:       cfg.ECPay.ExecTimes,
		Location:        loc,
	}, codec, &http.Client{Timeout: cfg.ECPay.RequestTimeout}, logger)

	orderNumbers := usecase.NewOrderNumberGenerator(repos.OrderNumber, repos.Transactor, loc, logger)
	ledger := usecase.NewSubscriptionLedger(repos.Subscription, orderNumbers, repos.Transactor, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Redis:        rdb,
		Repos:        repos,
		Gateway:      gateway,
		Codec:        codec,
		Publisher:    publisher,
		Ledger:       ledger,
		Webhooks:     usecase.NewWebhookProcessor(codec, ledger, repos.Notification, publisher, gateway.Name(), loc, logger),
		Subscription: usecase.NewSubscriptionService(repos.Plan, ledger, gateway, publisher, logger),
		Plans:        usecase.NewPlanService(repos.Plan, logger),
		RevenueShare: usecase.NewRevenueShareCalculator(ledger, repos.Usage, repos.Payout, locker, publisher, usecase.RevenueShareConfig{
			ShareRate: rate,
			LockTTL:   cfg.RevenueShare.LockTTL,
			Location:  loc,
		}, logger),
	}, nil
}

// Close releases Redis and database connections
func (c *Container) Close() {
	if err := c.Redis.Close(); err != nil {
		c.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}
	if err := database.Close(c.DB, c.Logger); err != nil {
		c.Logger.Error("Failed to close database connection", zap.Error(err))
	}
}
