package database

import (
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates and updates the tables owned by the billing service.
// view_stat and course belong to the catalogue and are only read.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Plan{},
		&model.SubscriptionPeriod{},
		&model.OrderNumber{},
		&model.PayoutRecord{},
		&model.PayoutRun{},
		&model.GatewayNotification{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes that GORM tags cannot express
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		// At most one auto-renewing period per user
		`CREATE UNIQUE INDEX IF NOT EXISTS unique_renewing_period_per_user ON subscription_periods (user_id) WHERE is_renewal`,
		// Income aggregation scans paid periods by purchase time
		`CREATE INDEX IF NOT EXISTS idx_subscription_periods_paid_purchased_at ON subscription_periods (purchased_at) WHERE is_paid`,
		`CREATE INDEX IF NOT EXISTS idx_payout_records_untransferred ON payout_records (period) WHERE NOT is_transferred`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
