package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription period repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a period. A unique-key collision is reported as ErrDuplicateDelivery.
func (r *subscriptionRepository) Create(ctx context.Context, period *model.SubscriptionPeriod) error {
	err := conn(ctx, r.db).Create(period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", domainErrors.ErrDuplicateDelivery, err)
		}
		r.logger.Error("Failed to create subscription period",
			zap.String("user_id", period.UserID.String()),
			zap.String("order_number", period.OrderNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create subscription period: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) Save(ctx context.Context, period *model.SubscriptionPeriod) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Save(period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", domainErrors.ErrDuplicateDelivery, err)
		}
		r.logger.Error("Failed to save subscription period",
			zap.Int64("period_id", period.ID),
			zap.Error(err))
		return fmt.Errorf("failed to save subscription period: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) LockUserPeriods(ctx context.Context, userID uuid.UUID) error {
	var ids []int64
	err := conn(ctx, r.db).
		Model(&model.SubscriptionPeriod{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error
	if err != nil {
		r.logger.Error("Failed to lock subscription periods",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to lock subscription periods: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id int64) (*model.SubscriptionPeriod, error) {
	return r.first(ctx, "find subscription period by id", conn(ctx, r.db).Where("id = ?", id))
}

func (r *subscriptionRepository) FindByGatewayOrderRef(ctx context.Context, ref string) (*model.SubscriptionPeriod, error) {
	return r.first(ctx, "find subscription period by gateway order ref",
		conn(ctx, r.db).Where("gateway_order_ref = ?", ref))
}

func (r *subscriptionRepository) FindLatestByAgreement(ctx context.Context, agreementID string) (*model.SubscriptionPeriod, error) {
	return r.first(ctx, "find latest subscription period by agreement",
		conn(ctx, r.db).
			Where("gateway_agreement_id = ? AND is_paid = ?", agreementID, true).
			Order("purchased_at DESC, id DESC"))
}

func (r *subscriptionRepository) FindByAgreementAndPurchasedAt(ctx context.Context, agreementID string, purchasedAt time.Time) (*model.SubscriptionPeriod, error) {
	return r.first(ctx, "find subscription period by agreement and purchase time",
		conn(ctx, r.db).Where("gateway_agreement_id = ? AND purchased_at = ?", agreementID, purchasedAt))
}

func (r *subscriptionRepository) FindNextByAgreement(ctx context.Context, agreementID string, at time.Time) (*model.SubscriptionPeriod, error) {
	return r.first(ctx, "find next subscription period by agreement",
		conn(ctx, r.db).
			Where("gateway_agreement_id = ? AND is_paid = ? AND start_at > ?", agreementID, true, at).
			Order("start_at ASC, id ASC"))
}

func (r *subscriptionRepository) FindRenewingByUser(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	return r.first(ctx, "find renewing subscription period",
		conn(ctx, r.db).
			Where("user_id = ? AND is_renewal = ?", userID, true).
			Order("id DESC"))
}

func (r *subscriptionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, at time.Time) (*model.SubscriptionPeriod, error) {
	return r.first(ctx, "find active subscription period",
		conn(ctx, r.db).
			Preload("Plan").
			Where("user_id = ? AND is_paid = ? AND start_at <= ? AND end_at > ?", userID, true, at, at).
			Order("start_at DESC"))
}

func (r *subscriptionRepository) ClearRenewal(ctx context.Context, userID uuid.UUID, exceptID int64) (int64, error) {
	result := conn(ctx, r.db).
		Model(&model.SubscriptionPeriod{}).
		Where("user_id = ? AND is_renewal = ? AND id <> ?", userID, true, exceptID).
		Updates(map[string]interface{}{
			"is_renewal": false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to clear renewal flags",
			zap.String("user_id", userID.String()),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to clear renewal flags: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *subscriptionRepository) CapOpenPeriods(ctx context.Context, userID uuid.UUID, at time.Time, exceptID int64) (int64, error) {
	result := conn(ctx, r.db).
		Model(&model.SubscriptionPeriod{}).
		Where("user_id = ? AND is_paid = ? AND start_at < ? AND end_at > ? AND id <> ?", userID, true, at, at, exceptID).
		Updates(map[string]interface{}{
			"end_at":     at,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to cap open subscription periods",
			zap.String("user_id", userID.String()),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to cap open periods: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *subscriptionRepository) SumPaidIncome(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.db).
		Model(&model.SubscriptionPeriod{}).
		Select("COALESCE(SUM(price), 0)").
		Where("is_paid = ? AND purchased_at >= ? AND purchased_at < ?", true, from, to).
		Row().
		Scan(&total)
	if err != nil {
		r.logger.Error("Failed to sum paid income",
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to sum paid income: %w", err)
	}
	return total, nil
}

func (r *subscriptionRepository) first(ctx context.Context, op string, query *gorm.DB) (*model.SubscriptionPeriod, error) {
	var period model.SubscriptionPeriod
	err := query.First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &period, nil
}
