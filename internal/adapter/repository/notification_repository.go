package repository

import (
	"context"
	"fmt"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new gateway notification repository
func NewNotificationRepository(db *gorm.DB, logger *zap.Logger) domainRepo.NotificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *notificationRepository) Save(ctx context.Context, notification *model.GatewayNotification) error {
	if err := conn(ctx, r.db).Create(notification).Error; err != nil {
		r.logger.Error("Failed to save gateway notification",
			zap.String("merchant_trade_no", notification.MerchantTradeNo),
			zap.Error(err))
		return fmt.Errorf("failed to save gateway notification: %w", err)
	}
	return nil
}
