package usecase

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/event"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/notification"
	"github.com/Mattie1391/sportify-backend/internal/domain/provider"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AckOK is the body the gateway expects for a handled notification.
const AckOK = "1|OK"

// WebhookResult describes a handled notification
type WebhookResult struct {
	Ack       string
	Kind      notification.Kind
	Duplicate bool
	Period    *model.SubscriptionPeriod
}

// WebhookProcessor applies gateway payment notifications to the ledger.
type WebhookProcessor struct {
	codec            provider.SignatureCodec
	ledger           *SubscriptionLedger
	notificationRepo repository.NotificationRepository
	publisher        event.Publisher
	gateway          string
	location         *time.Location
	logger           *zap.Logger
}

// NewWebhookProcessor creates a new webhook processor. Gateway timestamps
// are read in loc.
func NewWebhookProcessor(
	codec provider.SignatureCodec,
	ledger *SubscriptionLedger,
	notificationRepo repository.NotificationRepository,
	publisher event.Publisher,
	gateway string,
	loc *time.Location,
	logger *zap.Logger,
) *WebhookProcessor {
	if loc == nil {
		loc = time.UTC
	}
	return &WebhookProcessor{
		codec:            codec,
		ledger:           ledger,
		notificationRepo: notificationRepo,
		publisher:        publisher,
		gateway:          gateway,
		location:         loc,
		logger:           logger,
	}
}

// Process verifies and applies one notification. A nil error means the
// gateway must be acknowledged with Result.Ack; any error means it retries.
func (p *WebhookProcessor) Process(ctx context.Context, fields map[string]string) (*WebhookResult, error) {
	record := &model.GatewayNotification{
		Gateway:         p.gateway,
		MerchantTradeNo: fields[notification.FieldMerchantTradeNo],
		Payload:         payloadOf(fields),
		ReceivedAt:      time.Now(),
	}

	result, err := p.process(ctx, fields, record)
	p.audit(ctx, record, result, err)
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		p.publish(ctx, result)
	}
	return result, nil
}

func (p *WebhookProcessor) process(ctx context.Context, fields map[string]string, record *model.GatewayNotification) (*WebhookResult, error) {
	if err := p.codec.Verify(fields, fields[provider.SignatureField]); err != nil {
		p.logger.Warn("Rejected gateway notification with invalid signature",
			zap.String("merchant_trade_no", fields[notification.FieldMerchantTradeNo]))
		return nil, err
	}
	record.SignatureValid = true

	n, err := notification.Classify(fields, p.location)
	if err != nil {
		p.logger.Warn("Rejected malformed gateway notification",
			zap.String("merchant_trade_no", fields[notification.FieldMerchantTradeNo]),
			zap.Error(err))
		return nil, err
	}
	record.Kind = string(n.Kind())

	switch n := n.(type) {
	case *notification.ChargeFailed:
		p.logger.Warn("Gateway reported a failed charge",
			zap.String("merchant_trade_no", n.TradeNo),
			zap.String("rtn_code", n.Code),
			zap.String("rtn_msg", n.Message))
		return nil, domainErrors.NewChargeFailureError(n.Code, n.Message)
	case *notification.FirstChargeSucceeded:
		return p.applyFirstCharge(ctx, n)
	case *notification.RecurringChargeSucceeded:
		return p.applyRecurringCharge(ctx, n)
	default:
		return nil, fmt.Errorf("unsupported notification kind %s", n.Kind())
	}
}

func (p *WebhookProcessor) applyFirstCharge(ctx context.Context, n *notification.FirstChargeSucceeded) (*WebhookResult, error) {
	pending, err := p.ledger.FindByGatewayOrderRef(ctx, n.TradeNo)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending period: %w", err)
	}
	if pending == nil {
		p.logger.Warn("First charge for unknown order",
			zap.String("merchant_trade_no", n.TradeNo))
		return nil, domainErrors.ErrReferencedSubscriptionNotFound
	}

	if err := p.checkAmount(n.TradeNo, pending.Price, n.Charge); err != nil {
		return nil, err
	}

	period, duplicate, err := p.ledger.ActivateFirstCharge(ctx, pending.ID, n.Charge)
	if err != nil {
		return nil, err
	}
	return &WebhookResult{Ack: AckOK, Kind: n.Kind(), Duplicate: duplicate, Period: period}, nil
}

func (p *WebhookProcessor) applyRecurringCharge(ctx context.Context, n *notification.RecurringChargeSucceeded) (*WebhookResult, error) {
	latest, err := p.ledger.FindLatestByAgreement(ctx, n.TradeNo)
	if err != nil {
		return nil, fmt.Errorf("failed to find agreement: %w", err)
	}
	if latest == nil {
		p.logger.Warn("Recurring charge for unknown agreement",
			zap.String("merchant_trade_no", n.TradeNo),
			zap.Int("total_success_times", n.SuccessTimes))
		return nil, domainErrors.ErrReferencedSubscriptionNotFound
	}

	if err := p.checkAmount(n.TradeNo, latest.Price, n.Charge); err != nil {
		return nil, err
	}

	period, duplicate, err := p.ledger.RecordRecurringCharge(ctx, n.TradeNo, n.Charge)
	if err != nil {
		return nil, err
	}
	return &WebhookResult{Ack: AckOK, Kind: n.Kind(), Duplicate: duplicate, Period: period}, nil
}

// checkAmount rejects a charge that differs from the price on record.
func (p *WebhookProcessor) checkAmount(tradeNo string, expected decimal.Decimal, charge model.Charge) error {
	if charge.Amount.Equal(expected) {
		return nil
	}
	p.logger.Error("Charged amount does not match the recorded price",
		zap.String("merchant_trade_no", tradeNo),
		zap.String("expected", expected.String()),
		zap.String("actual", charge.Amount.String()))
	return domainErrors.NewAmountMismatchError(expected, charge.Amount)
}

// audit stores the delivery. Failures are logged and never change the answer.
func (p *WebhookProcessor) audit(ctx context.Context, record *model.GatewayNotification, result *WebhookResult, err error) {
	switch {
	case err != nil:
		record.Outcome = model.NotificationOutcomeRejected
		msg := err.Error()
		record.Error = &msg
	case result.Duplicate:
		record.Outcome = model.NotificationOutcomeDuplicate
	default:
		record.Outcome = model.NotificationOutcomeProcessed
	}

	if saveErr := p.notificationRepo.Save(ctx, record); saveErr != nil {
		p.logger.Warn("Failed to store gateway notification",
			zap.String("merchant_trade_no", record.MerchantTradeNo),
			zap.Error(saveErr))
	}
}

func (p *WebhookProcessor) publish(ctx context.Context, result *WebhookResult) {
	period := result.Period
	eventType := event.SubscriptionRenewed
	if result.Kind == notification.KindFirstCharge {
		eventType = event.SubscriptionActivated
	}

	data := map[string]interface{}{
		"user_id":      period.UserID.String(),
		"plan_id":      period.PlanID.String(),
		"period_id":    period.ID,
		"order_number": period.OrderNumber,
		"price":        period.Price.String(),
	}
	if period.StartAt != nil && period.EndAt != nil {
		data["start_at"] = period.StartAt.UTC()
		data["end_at"] = period.EndAt.UTC()
	}

	if err := p.publisher.Publish(ctx, event.New(eventType, data)); err != nil {
		p.logger.Warn("Failed to publish billing event",
			zap.String("type", string(eventType)),
			zap.Int64("period_id", period.ID),
			zap.Error(err))
	}
}

func payloadOf(fields map[string]string) model.JSONB {
	payload := make(model.JSONB, len(fields))
	for k, v := range fields {
		payload[k] = v
	}
	return payload
}

