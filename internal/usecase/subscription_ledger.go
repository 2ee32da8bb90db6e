package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	gatewayOrderRefPrefix = "ORD"
	gatewayOrderRefLength = 16

	// noExcludedPeriod matches no row; serial ids start at 1.
	noExcludedPeriod int64 = 0
)

// SubscriptionLedger owns every state change of subscription periods.
//
// Mutations run in one transaction and lock the user's rows before reading
// them, so at most one period per user renews and paid periods never overlap.
type SubscriptionLedger struct {
	subscriptionRepo repository.SubscriptionRepository
	orderNumbers     *OrderNumberGenerator
	transactor       repository.Transactor
	logger           *zap.Logger
	now              func() time.Time
}

// NewSubscriptionLedger creates a new subscription ledger
func NewSubscriptionLedger(
	subscriptionRepo repository.SubscriptionRepository,
	orderNumbers *OrderNumberGenerator,
	transactor repository.Transactor,
	logger *zap.Logger,
) *SubscriptionLedger {
	return &SubscriptionLedger{
		subscriptionRepo: subscriptionRepo,
		orderNumbers:     orderNumbers,
		transactor:       transactor,
		logger:           logger,
		now:              time.Now,
	}
}

// CreatePendingPeriod opens an unpaid period for a checkout of plan.
func (l *SubscriptionLedger) CreatePendingPeriod(ctx context.Context, userID uuid.UUID, plan *model.Plan) (*model.SubscriptionPeriod, error) {
	var period *model.SubscriptionPeriod

	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		orderNumber, err := l.orderNumbers.Next(ctx, l.now())
		if err != nil {
			return err
		}

		ref := newGatewayOrderRef()
		period = &model.SubscriptionPeriod{
			UserID:          userID,
			PlanID:          plan.ID,
			OrderNumber:     orderNumber,
			GatewayOrderRef: &ref,
			Price:           plan.Pricing,
		}
		return l.subscriptionRepo.Create(ctx, period)
	})
	if err != nil {
		l.logger.Error("Failed to create pending period",
			zap.String("user_id", userID.String()),
			zap.String("plan_id", plan.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create pending period: %w", err)
	}

	l.logger.Info("Pending period created",
		zap.String("user_id", userID.String()),
		zap.Int64("period_id", period.ID),
		zap.String("order_number", period.OrderNumber),
		zap.String("gateway_order_ref", *period.GatewayOrderRef))

	return period, nil
}

// ActivateFirstCharge pays the pending period. The bool result reports a
// redelivery of a charge already applied.
func (l *SubscriptionLedger) ActivateFirstCharge(ctx context.Context, periodID int64, charge model.Charge) (*model.SubscriptionPeriod, bool, error) {
	var (
		period    *model.SubscriptionPeriod
		duplicate bool
	)

	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := l.lockedPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		period = current

		if period.IsPaid {
			if period.GatewayAgreementID != nil && *period.GatewayAgreementID == charge.AgreementID {
				duplicate = true
				return nil
			}
			return domainErrors.ErrPeriodAlreadyPaid
		}

		period.MarkPaid(charge)

		if _, err := l.subscriptionRepo.ClearRenewal(ctx, period.UserID, period.ID); err != nil {
			return err
		}
		capped, err := l.subscriptionRepo.CapOpenPeriods(ctx, period.UserID, charge.PaidAt, period.ID)
		if err != nil {
			return err
		}
		if capped > 0 {
			l.logger.Info("Capped open periods on activation",
				zap.String("user_id", period.UserID.String()),
				zap.Int64("capped", capped))
		}

		return l.subscriptionRepo.Save(ctx, period)
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateDelivery) {
			return l.existingCharge(ctx, charge)
		}
		return nil, false, err
	}

	if duplicate {
		l.logger.Info("First charge already applied",
			zap.Int64("period_id", period.ID),
			zap.String("agreement_id", charge.AgreementID))
	} else {
		l.logger.Info("Subscription activated",
			zap.String("user_id", period.UserID.String()),
			zap.Int64("period_id", period.ID),
			zap.String("agreement_id", charge.AgreementID),
			zap.Time("end_at", *period.EndAt))
	}

	return period, duplicate, nil
}

// RecordRecurringCharge inserts the paid period of a monthly charge on
// agreementID. A charge already recorded for the same purchase time is
// reported as a duplicate and changes nothing.
func (l *SubscriptionLedger) RecordRecurringCharge(ctx context.Context, agreementID string, charge model.Charge) (*model.SubscriptionPeriod, bool, error) {
	var (
		period    *model.SubscriptionPeriod
		duplicate bool
	)

	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		latest, err := l.subscriptionRepo.FindLatestByAgreement(ctx, agreementID)
		if err != nil {
			return err
		}
		if latest == nil {
			return domainErrors.ErrReferencedSubscriptionNotFound
		}

		if err := l.subscriptionRepo.LockUserPeriods(ctx, latest.UserID); err != nil {
			return err
		}

		existing, err := l.subscriptionRepo.FindByAgreementAndPurchasedAt(ctx, agreementID, charge.PaidAt)
		if err != nil {
			return err
		}
		if existing != nil {
			period = existing
			duplicate = true
			return nil
		}

		// Re-read under the lock; a concurrent charge may have moved the latest row.
		latest, err = l.subscriptionRepo.FindLatestByAgreement(ctx, agreementID)
		if err != nil {
			return err
		}
		if latest == nil {
			return domainErrors.ErrReferencedSubscriptionNotFound
		}

		orderNumber, err := l.orderNumbers.Next(ctx, charge.PaidAt)
		if err != nil {
			return err
		}

		period = model.NewRenewalPeriod(latest, orderNumber, charge)

		// Set when an older charge is delivered after a later one.
		next, err := l.subscriptionRepo.FindNextByAgreement(ctx, agreementID, charge.PaidAt)
		if err != nil {
			return err
		}

		switch {
		case next != nil:
			l.logger.Warn("Recurring charge delivered after a later charge",
				zap.String("user_id", latest.UserID.String()),
				zap.String("agreement_id", agreementID),
				zap.Int64("next_period_id", next.ID),
				zap.Time("purchased_at", charge.PaidAt))
			period.IsRenewal = false
			if next.StartAt.Before(*period.EndAt) {
				end := *next.StartAt
				period.EndAt = &end
			}
		case latest.IsRenewal:
			if _, err := l.subscriptionRepo.ClearRenewal(ctx, latest.UserID, noExcludedPeriod); err != nil {
				return err
			}
		default:
			l.logger.Warn("Recurring charge received for a cancelled renewal",
				zap.String("user_id", latest.UserID.String()),
				zap.String("agreement_id", agreementID),
				zap.Int64("previous_period_id", latest.ID))
			period.IsRenewal = false
		}

		if _, err := l.subscriptionRepo.CapOpenPeriods(ctx, latest.UserID, charge.PaidAt, noExcludedPeriod); err != nil {
			return err
		}

		return l.subscriptionRepo.Create(ctx, period)
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateDelivery) {
			return l.existingCharge(ctx, charge)
		}
		return nil, false, err
	}

	if duplicate {
		l.logger.Info("Recurring charge already recorded",
			zap.Int64("period_id", period.ID),
			zap.String("agreement_id", agreementID),
			zap.Time("purchased_at", charge.PaidAt))
	} else {
		l.logger.Info("Subscription renewed",
			zap.String("user_id", period.UserID.String()),
			zap.Int64("period_id", period.ID),
			zap.String("order_number", period.OrderNumber),
			zap.String("agreement_id", agreementID))
	}

	return period, duplicate, nil
}

// CancelAutoRenew stops renewal of the user's renewing period. The current
// period stays active until its end.
func (l *SubscriptionLedger) CancelAutoRenew(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	var period *model.SubscriptionPeriod

	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := l.subscriptionRepo.LockUserPeriods(ctx, userID); err != nil {
			return err
		}

		renewing, err := l.subscriptionRepo.FindRenewingByUser(ctx, userID)
		if err != nil {
			return err
		}
		if renewing == nil {
			return domainErrors.ErrNoRenewingPeriod
		}

		renewing.IsRenewal = false
		period = renewing
		return l.subscriptionRepo.Save(ctx, renewing)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Auto renewal cancelled",
		zap.String("user_id", userID.String()),
		zap.Int64("period_id", period.ID))

	return period, nil
}

func (l *SubscriptionLedger) FindActivePeriod(ctx context.Context, userID uuid.UUID, now time.Time) (*model.SubscriptionPeriod, error) {
	return l.subscriptionRepo.FindActiveByUser(ctx, userID, now)
}

func (l *SubscriptionLedger) FindRenewingPeriod(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	return l.subscriptionRepo.FindRenewingByUser(ctx, userID)
}

func (l *SubscriptionLedger) FindByGatewayOrderRef(ctx context.Context, ref string) (*model.SubscriptionPeriod, error) {
	return l.subscriptionRepo.FindByGatewayOrderRef(ctx, ref)
}

func (l *SubscriptionLedger) FindLatestByAgreement(ctx context.Context, agreementID string) (*model.SubscriptionPeriod, error) {
	return l.subscriptionRepo.FindLatestByAgreement(ctx, agreementID)
}

// SumPaidIncome totals paid periods purchased in [from, to).
func (l *SubscriptionLedger) SumPaidIncome(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return l.subscriptionRepo.SumPaidIncome(ctx, from, to)
}

func (l *SubscriptionLedger) lockedPeriod(ctx context.Context, periodID int64) (*model.SubscriptionPeriod, error) {
	period, err := l.subscriptionRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domainErrors.ErrReferencedSubscriptionNotFound
	}

	if err := l.subscriptionRepo.LockUserPeriods(ctx, period.UserID); err != nil {
		return nil, err
	}

	period, err = l.subscriptionRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domainErrors.ErrReferencedSubscriptionNotFound
	}
	return period, nil
}

// existingCharge resolves a unique-index collision raised by a concurrent
// delivery of the same charge.
func (l *SubscriptionLedger) existingCharge(ctx context.Context, charge model.Charge) (*model.SubscriptionPeriod, bool, error) {
	existing, err := l.subscriptionRepo.FindByAgreementAndPurchasedAt(ctx, charge.AgreementID, charge.PaidAt)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("charge collided but no period found for agreement %s", charge.AgreementID)
	}

	l.logger.Info("Concurrent delivery resolved as duplicate",
		zap.Int64("period_id", existing.ID),
		zap.String("agreement_id", charge.AgreementID))
	return existing, true, nil
}

func newGatewayOrderRef() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return gatewayOrderRefPrefix + id[:gatewayOrderRefLength]
}
