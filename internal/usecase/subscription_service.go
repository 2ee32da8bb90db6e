package usecase

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/event"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/provider"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const checkoutTradeDesc = "Sportify+ monthly subscription"

// SubscriptionService handles the user-facing subscription flows
type SubscriptionService struct {
	planRepo  repository.PlanRepository
	ledger    *SubscriptionLedger
	gateway   provider.RecurringGateway
	publisher event.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(
	planRepo repository.PlanRepository,
	ledger *SubscriptionLedger,
	gateway provider.RecurringGateway,
	publisher event.Publisher,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		planRepo:  planRepo,
		ledger:    ledger,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckoutResult is a pending period and the form that pays it
type CheckoutResult struct {
	Period *model.SubscriptionPeriod
	Form   *provider.CheckoutForm
}

// Checkout opens a pending period for planID and returns the signed gateway form.
func (s *SubscriptionService) Checkout(ctx context.Context, userID, planID uuid.UUID) (*CheckoutResult, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, domainErrors.ErrPlanNotFound
	}

	renewing, err := s.ledger.FindRenewingPeriod(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check renewing period: %w", err)
	}
	if renewing != nil && renewing.IsActiveAt(s.now()) {
		s.logger.Info("Checkout refused, subscription still renewing",
			zap.String("user_id", userID.String()),
			zap.Int64("period_id", renewing.ID))
		return nil, domainErrors.ErrActiveSubscriptionExists
	}

	period, err := s.ledger.CreatePendingPeriod(ctx, userID, plan)
	if err != nil {
		return nil, err
	}

	form, err := s.gateway.BuildCheckout(ctx, &provider.CheckoutRequest{
		MerchantTradeNo: *period.GatewayOrderRef,
		MemberID:        userID.String(),
		Amount:          plan.Pricing,
		ItemName:        plan.Name,
		TradeDesc:       checkoutTradeDesc,
		TradeDate:       s.now(),
	})
	if err != nil {
		s.logger.Error("Failed to build checkout form",
			zap.String("user_id", userID.String()),
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to build checkout form: %w", err)
	}

	return &CheckoutResult{Period: period, Form: form}, nil
}

// CancelAutoRenew stops the gateway agreement first, then the local renewal.
// A gateway refusal leaves the ledger untouched.
func (s *SubscriptionService) CancelAutoRenew(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	renewing, err := s.ledger.FindRenewingPeriod(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find renewing period: %w", err)
	}
	if renewing == nil {
		return nil, domainErrors.ErrNoRenewingPeriod
	}

	if renewing.GatewayAgreementID != nil {
		if err := s.gateway.CancelRecurring(ctx, *renewing.GatewayAgreementID); err != nil {
			s.logger.Error("Gateway refused cancellation",
				zap.String("user_id", userID.String()),
				zap.String("agreement_id", *renewing.GatewayAgreementID),
				zap.Error(err))
			return nil, err
		}
	}

	period, err := s.ledger.CancelAutoRenew(ctx, userID)
	if err != nil {
		return nil, err
	}

	evt := event.New(event.SubscriptionRenewalCancelled, map[string]interface{}{
		"user_id":   userID.String(),
		"period_id": period.ID,
	})
	if period.EndAt != nil {
		evt.Data["end_at"] = period.EndAt.UTC()
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish billing event",
			zap.String("type", string(evt.Type)),
			zap.Error(err))
	}

	return period, nil
}

// CurrentSubscription returns the user's active period with its plan, or nil.
func (s *SubscriptionService) CurrentSubscription(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	period, err := s.ledger.FindActivePeriod(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get active period: %w", err)
	}
	return period, nil
}
