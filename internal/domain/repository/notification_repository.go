package repository

import (
	"context"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
)

// NotificationRepository keeps the audit trail of gateway webhooks.
type NotificationRepository interface {
	Save(ctx context.Context, notification *model.GatewayNotification) error
}
