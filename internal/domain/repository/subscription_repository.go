package repository

import (
	"context"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionRepository persists subscription periods.
//
// Methods join the transaction carried by ctx when one is open (see
// Transactor). Finders return (nil, nil) when nothing matches.
type SubscriptionRepository interface {
	Create(ctx context.Context, period *model.SubscriptionPeriod) error
	Save(ctx context.Context, period *model.SubscriptionPeriod) error

	// LockUserPeriods takes row locks on every period of the user until the
	// surrounding transaction ends.
	LockUserPeriods(ctx context.Context, userID uuid.UUID) error

	FindByID(ctx context.Context, id int64) (*model.SubscriptionPeriod, error)
	FindByGatewayOrderRef(ctx context.Context, ref string) (*model.SubscriptionPeriod, error)
	FindLatestByAgreement(ctx context.Context, agreementID string) (*model.SubscriptionPeriod, error)
	FindByAgreementAndPurchasedAt(ctx context.Context, agreementID string, purchasedAt time.Time) (*model.SubscriptionPeriod, error)
	// FindNextByAgreement returns the earliest paid period of the agreement starting after at.
	FindNextByAgreement(ctx context.Context, agreementID string, at time.Time) (*model.SubscriptionPeriod, error)
	FindRenewingByUser(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID, at time.Time) (*model.SubscriptionPeriod, error)

	// ClearRenewal sets is_renewal = false on the user's rows other than exceptID.
	ClearRenewal(ctx context.Context, userID uuid.UUID, exceptID int64) (int64, error)
	// CapOpenPeriods sets end_at = at on the user's paid rows that started
	// before at and end after it, other than exceptID.
	CapOpenPeriods(ctx context.Context, userID uuid.UUID, at time.Time, exceptID int64) (int64, error)

	// SumPaidIncome totals the price of paid periods purchased in [from, to).
	SumPaidIncome(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}
