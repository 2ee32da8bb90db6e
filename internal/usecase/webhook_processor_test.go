package usecase_test

import (
	"context"
	"testing"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/event"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/notification"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/provider/ecpay"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const gatewayDate = "2006/01/02 15:04:05"

type billingFixture struct {
	store         *memoryStore
	notifications *notificationLog
	publisher     *recordingPublisher
	codec         *ecpay.SignatureCodec
	ledger        *usecase.SubscriptionLedger
	processor     *usecase.WebhookProcessor
	loc           *time.Location
	userID        uuid.UUID
	plan          *model.Plan
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	loc := mustTaipei(t)
	logger := zap.NewNop()

	store := newMemoryStore()
	notifications := &notificationLog{}
	publisher := &recordingPublisher{}
	codec := ecpay.NewSignatureCodec("pwFHCqoQZGmho4w6", "EkRm7iFT261dpevs")

	orderNumbers := usecase.NewOrderNumberGenerator(store, store, loc, logger)
	ledger := usecase.NewSubscriptionLedger(store, orderNumbers, store, logger)
	ledger.SetClock(func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, loc) })

	return &billingFixture{
		store:         store,
		notifications: notifications,
		publisher:     publisher,
		codec:         codec,
		ledger:        ledger,
		processor:     usecase.NewWebhookProcessor(codec, ledger, notifications, publisher, "ecpay", loc, logger),
		loc:           loc,
		userID:        uuid.New(),
		plan:          &model.Plan{ID: uuid.New(), Name: "Wellness", Pricing: decimal.NewFromInt(299)},
	}
}

func (f *billingFixture) checkout(t *testing.T) *model.SubscriptionPeriod {
	t.Helper()
	period, err := f.ledger.CreatePendingPeriod(context.Background(), f.userID, f.plan)
	require.NoError(t, err)
	return period
}

func (f *billingFixture) signed(fields map[string]string) map[string]string {
	fields["CheckMacValue"] = f.codec.Sign(fields)
	return fields
}

func (f *billingFixture) firstCharge(ref, amount string, paidAt time.Time) map[string]string {
	return f.signed(map[string]string{
		"MerchantID":      "3002607",
		"MerchantTradeNo": ref,
		"RtnCode":         "1",
		"RtnMsg":          "Succeeded",
		"TradeAmt":        amount,
		"PaymentDate":     paidAt.Format(gatewayDate),
		"PaymentType":     "Credit_CreditCard",
		"TradeNo":         "T" + paidAt.Format("060102150405"),
	})
}

func (f *billingFixture) recurringCharge(ref, amount string, paidAt time.Time, times string) map[string]string {
	return f.signed(map[string]string{
		"MerchantID":        "3002607",
		"MerchantTradeNo":   ref,
		"RtnCode":           "1",
		"RtnMsg":            "Succeeded",
		"Amount":            amount,
		"ProcessDate":       paidAt.Format(gatewayDate),
		"Gwsr":              "G" + paidAt.Format("060102150405"),
		"TotalSuccessTimes": times,
	})
}

// activate runs checkout and the first charge at paidAt.
func (f *billingFixture) activate(t *testing.T, paidAt time.Time) *model.SubscriptionPeriod {
	t.Helper()
	pending := f.checkout(t)
	result, err := f.processor.Process(context.Background(), f.firstCharge(*pending.GatewayOrderRef, "299", paidAt))
	require.NoError(t, err)
	return result.Period
}

func TestWebhookProcessor_FirstCharge(t *testing.T) {
	ctx := context.Background()

	t.Run("activates the pending period", func(t *testing.T) {
		f := newBillingFixture(t)
		pending := f.checkout(t)
		assert.Equal(t, "202505010001", pending.OrderNumber)
		assert.False(t, pending.IsPaid)

		paidAt := time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc)
		result, err := f.processor.Process(ctx, f.firstCharge(*pending.GatewayOrderRef, "299", paidAt))
		require.NoError(t, err)

		assert.Equal(t, usecase.AckOK, result.Ack)
		assert.Equal(t, notification.KindFirstCharge, result.Kind)
		assert.False(t, result.Duplicate)

		stored, _ := f.store.FindByID(ctx, pending.ID)
		require.NotNil(t, stored)
		assert.True(t, stored.IsPaid)
		assert.True(t, stored.IsRenewal)
		assert.True(t, paidAt.Equal(*stored.StartAt))
		assert.True(t, time.Date(2025, 6, 1, 10, 5, 0, 0, f.loc).Equal(*stored.EndAt))
		assert.Equal(t, *pending.GatewayOrderRef, *stored.GatewayAgreementID)
		assert.Equal(t, "credit_card", *stored.PaymentMethod)
		assert.Equal(t, "T250501100500", *stored.InvoiceReference)

		assert.Equal(t, []event.Type{event.SubscriptionActivated}, f.publisher.types())
		audit := f.notifications.last()
		require.NotNil(t, audit)
		assert.Equal(t, model.NotificationOutcomeProcessed, audit.Outcome)
		assert.True(t, audit.SignatureValid)
		assert.Equal(t, string(notification.KindFirstCharge), audit.Kind)
	})

	t.Run("redelivery is acknowledged without changes", func(t *testing.T) {
		f := newBillingFixture(t)
		pending := f.checkout(t)
		fields := f.firstCharge(*pending.GatewayOrderRef, "299", time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))

		_, err := f.processor.Process(ctx, fields)
		require.NoError(t, err)
		before := f.store.userPeriods(f.userID)

		result, err := f.processor.Process(ctx, fields)
		require.NoError(t, err)
		assert.True(t, result.Duplicate)
		assert.Equal(t, usecase.AckOK, result.Ack)
		assert.Equal(t, before, f.store.userPeriods(f.userID))
		assert.Len(t, f.publisher.types(), 1)
		assert.Equal(t, model.NotificationOutcomeDuplicate, f.notifications.last().Outcome)
	})

	t.Run("amount mismatch leaves the period unpaid", func(t *testing.T) {
		f := newBillingFixture(t)
		pending := f.checkout(t)

		_, err := f.processor.Process(ctx, f.firstCharge(*pending.GatewayOrderRef, "100", time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc)))

		var mismatch *domainErrors.AmountMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.True(t, decimal.NewFromInt(299).Equal(mismatch.Expected))
		assert.True(t, decimal.NewFromInt(100).Equal(mismatch.Actual))

		stored, _ := f.store.FindByID(ctx, pending.ID)
		assert.False(t, stored.IsPaid)
		assert.Empty(t, f.publisher.types())
		assert.Equal(t, model.NotificationOutcomeRejected, f.notifications.last().Outcome)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newBillingFixture(t)

		_, err := f.processor.Process(ctx, f.firstCharge("ORDUNKNOWN", "299", time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc)))
		assert.ErrorIs(t, err, domainErrors.ErrReferencedSubscriptionNotFound)
	})
}

func TestWebhookProcessor_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid signature changes nothing", func(t *testing.T) {
		f := newBillingFixture(t)
		pending := f.checkout(t)
		fields := f.firstCharge(*pending.GatewayOrderRef, "299", time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))
		fields["TradeAmt"] = "1"

		_, err := f.processor.Process(ctx, fields)
		assert.ErrorIs(t, err, domainErrors.ErrSignatureInvalid)

		stored, _ := f.store.FindByID(ctx, pending.ID)
		assert.False(t, stored.IsPaid)
		audit := f.notifications.last()
		require.NotNil(t, audit)
		assert.False(t, audit.SignatureValid)
		assert.Equal(t, model.NotificationOutcomeRejected, audit.Outcome)
	})

	t.Run("missing signature", func(t *testing.T) {
		f := newBillingFixture(t)
		_, err := f.processor.Process(ctx, map[string]string{"MerchantTradeNo": "ORD1", "RtnCode": "1"})
		assert.ErrorIs(t, err, domainErrors.ErrSignatureInvalid)
	})

	t.Run("malformed payload", func(t *testing.T) {
		f := newBillingFixture(t)
		_, err := f.processor.Process(ctx, f.signed(map[string]string{"MerchantTradeNo": "ORD1", "RtnCode": "1"}))
		assert.ErrorIs(t, err, domainErrors.ErrMalformedNotification)
	})

	t.Run("failed charge", func(t *testing.T) {
		f := newBillingFixture(t)
		pending := f.checkout(t)

		_, err := f.processor.Process(ctx, f.signed(map[string]string{
			"MerchantTradeNo": *pending.GatewayOrderRef,
			"RtnCode":         "10100058",
			"RtnMsg":          "Card declined",
		}))

		var failure *domainErrors.ChargeFailureError
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "10100058", failure.Code)
		stored, _ := f.store.FindByID(ctx, pending.ID)
		assert.False(t, stored.IsPaid)
		assert.Equal(t, string(notification.KindChargeFailed), f.notifications.last().Kind)
	})
}

func TestWebhookProcessor_RecurringCharge(t *testing.T) {
	ctx := context.Background()

	t.Run("each charge opens the next period", func(t *testing.T) {
		f := newBillingFixture(t)
		first := f.activate(t, time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))
		ref := *first.GatewayAgreementID

		june := time.Date(2025, 6, 1, 10, 5, 0, 0, f.loc)
		result, err := f.processor.Process(ctx, f.recurringCharge(ref, "299", june, "2"))
		require.NoError(t, err)
		assert.Equal(t, notification.KindRecurringCharge, result.Kind)
		assert.Equal(t, "202506010001", result.Period.OrderNumber)

		july := time.Date(2025, 7, 1, 10, 5, 0, 0, f.loc)
		_, err = f.processor.Process(ctx, f.recurringCharge(ref, "299", july, "3"))
		require.NoError(t, err)

		periods := f.store.userPeriods(f.userID)
		require.Len(t, periods, 3)

		renewing := 0
		for i, p := range periods {
			assert.True(t, p.IsPaid)
			if p.IsRenewal {
				renewing++
			}
			if i > 0 {
				assert.False(t, p.StartAt.Before(*periods[i-1].EndAt), "periods %d and %d overlap", i-1, i)
			}
		}
		assert.Equal(t, 1, renewing)
		assert.True(t, periods[2].IsRenewal)
		assert.True(t, time.Date(2025, 8, 1, 10, 5, 0, 0, f.loc).Equal(*periods[2].EndAt))
		assert.Equal(t, "G250701100500", *periods[2].InvoiceReference)

		assert.Equal(t, []event.Type{
			event.SubscriptionActivated,
			event.SubscriptionRenewed,
			event.SubscriptionRenewed,
		}, f.publisher.types())
	})

	t.Run("early charge caps the open period", func(t *testing.T) {
		f := newBillingFixture(t)
		first := f.activate(t, time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))

		early := time.Date(2025, 5, 20, 8, 0, 0, 0, f.loc)
		_, err := f.processor.Process(ctx, f.recurringCharge(*first.GatewayAgreementID, "299", early, "2"))
		require.NoError(t, err)

		previous, _ := f.store.FindByID(ctx, first.ID)
		assert.True(t, early.Equal(*previous.EndAt))
		assert.False(t, previous.IsRenewal)
	})

	t.Run("older charge delivered late keeps the later period", func(t *testing.T) {
		f := newBillingFixture(t)
		first := f.activate(t, time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))
		ref := *first.GatewayAgreementID

		july := time.Date(2025, 7, 1, 10, 5, 0, 0, f.loc)
		julyResult, err := f.processor.Process(ctx, f.recurringCharge(ref, "299", july, "3"))
		require.NoError(t, err)

		june := time.Date(2025, 6, 5, 10, 5, 0, 0, f.loc)
		juneResult, err := f.processor.Process(ctx, f.recurringCharge(ref, "299", june, "2"))
		require.NoError(t, err)
		assert.True(t, june.Equal(*juneResult.Period.StartAt))
		assert.True(t, july.Equal(*juneResult.Period.EndAt))
		assert.False(t, juneResult.Period.IsRenewal)

		later, _ := f.store.FindByID(ctx, julyResult.Period.ID)
		assert.True(t, july.Equal(*later.StartAt))
		assert.True(t, time.Date(2025, 8, 1, 10, 5, 0, 0, f.loc).Equal(*later.EndAt))
		assert.True(t, later.IsRenewal)

		renewing, _ := f.store.FindRenewingByUser(ctx, f.userID)
		require.NotNil(t, renewing)
		assert.Equal(t, julyResult.Period.ID, renewing.ID)

		active, _ := f.store.FindActiveByUser(ctx, f.userID, time.Date(2025, 7, 15, 0, 0, 0, 0, f.loc))
		require.NotNil(t, active)
		assert.Equal(t, julyResult.Period.ID, active.ID)

		periods := f.store.userPeriods(f.userID)
		require.Len(t, periods, 3)
		for _, p := range periods {
			assert.False(t, p.EndAt.Before(*p.StartAt), "period %d ends before it starts", p.ID)
		}
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		f := newBillingFixture(t)
		first := f.activate(t, time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))
		fields := f.recurringCharge(*first.GatewayAgreementID, "299", time.Date(2025, 6, 1, 10, 5, 0, 0, f.loc), "2")

		original, err := f.processor.Process(ctx, fields)
		require.NoError(t, err)
		again, err := f.processor.Process(ctx, fields)
		require.NoError(t, err)

		assert.True(t, again.Duplicate)
		assert.Equal(t, original.Period.ID, again.Period.ID)
		assert.Len(t, f.store.userPeriods(f.userID), 2)
		assert.Len(t, f.store.orderNumbers, 2)
		assert.Equal(t, []event.Type{event.SubscriptionActivated, event.SubscriptionRenewed}, f.publisher.types())
	})

	t.Run("amount mismatch changes nothing", func(t *testing.T) {
		f := newBillingFixture(t)
		first := f.activate(t, time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))
		before := f.store.userPeriods(f.userID)

		_, err := f.processor.Process(ctx, f.recurringCharge(*first.GatewayAgreementID, "300", time.Date(2025, 6, 1, 10, 5, 0, 0, f.loc), "2"))

		var mismatch *domainErrors.AmountMismatchError
		assert.ErrorAs(t, err, &mismatch)
		assert.Equal(t, before, f.store.userPeriods(f.userID))
	})

	t.Run("unknown agreement", func(t *testing.T) {
		f := newBillingFixture(t)
		_, err := f.processor.Process(ctx, f.recurringCharge("ORDUNKNOWN", "299", time.Date(2025, 6, 1, 10, 5, 0, 0, f.loc), "2"))
		assert.ErrorIs(t, err, domainErrors.ErrReferencedSubscriptionNotFound)
	})

	t.Run("charge after cancelled renewal is recorded without renewal", func(t *testing.T) {
		f := newBillingFixture(t)
		first := f.activate(t, time.Date(2025, 5, 1, 10, 5, 0, 0, f.loc))
		_, err := f.ledger.CancelAutoRenew(ctx, f.userID)
		require.NoError(t, err)

		result, err := f.processor.Process(ctx, f.recurringCharge(*first.GatewayAgreementID, "299", time.Date(2025, 6, 1, 10, 5, 0, 0, f.loc), "2"))
		require.NoError(t, err)
		assert.True(t, result.Period.IsPaid)
		assert.False(t, result.Period.IsRenewal)

		renewing, _ := f.store.FindRenewingByUser(ctx, f.userID)
		assert.Nil(t, renewing)
	})
}
