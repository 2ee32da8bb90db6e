package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/event"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const revenueShareLockPrefix = "revenue_share:"

// RevenueShareConfig tunes the monthly split
type RevenueShareConfig struct {
	// ShareRate is the fraction of income shared among coaches
	ShareRate decimal.Decimal
	LockTTL   time.Duration
	Location  *time.Location
}

// RevenueShareResult summarises one month's computation. Run is nil when
// the month was skipped.
type RevenueShareResult struct {
	Period     string
	Run        *model.PayoutRun
	Records    []*model.PayoutRecord
	SkipReason string
}

// RevenueShareCalculator splits a month's subscription income among coaches
// by watch time.
type RevenueShareCalculator struct {
	ledger     *SubscriptionLedger
	usageRepo  repository.UsageRepository
	payoutRepo repository.PayoutRepository
	locker     repository.Locker
	publisher  event.Publisher
	cfg        RevenueShareConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewRevenueShareCalculator creates a new revenue share calculator
func NewRevenueShareCalculator(
	ledger *SubscriptionLedger,
	usageRepo repository.UsageRepository,
	payoutRepo repository.PayoutRepository,
	locker repository.Locker,
	publisher event.Publisher,
	cfg RevenueShareConfig,
	logger *zap.Logger,
) *RevenueShareCalculator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &RevenueShareCalculator{
		ledger:     ledger,
		usageRepo:  usageRepo,
		payoutRepo: payoutRepo,
		locker:     locker,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Run computes the month before now.
func (c *RevenueShareCalculator) Run(ctx context.Context, now time.Time) (*RevenueShareResult, error) {
	return c.Compute(ctx, model.PreviousBillingMonth(now, c.cfg.Location))
}

// Compute splits the income of month. It fails with ErrPayoutPeriodComputed
// when the month already has a run and writes nothing when a guard trips.
func (c *RevenueShareCalculator) Compute(ctx context.Context, month model.BillingMonth) (*RevenueShareResult, error) {
	period := month.String()
	logger := c.logger.With(zap.String("period", period))

	lock, err := c.locker.Acquire(ctx, revenueShareLockPrefix+period, c.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, repository.ErrLockNotAcquired) {
			logger.Warn("Revenue share already running elsewhere")
			return nil, domainErrors.ErrRevenueShareLocked
		}
		return nil, fmt.Errorf("failed to acquire revenue share lock: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release revenue share lock", zap.Error(err))
		}
	}()

	exists, err := c.payoutRepo.RunExists(ctx, period)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Info("Revenue share already computed")
		return nil, domainErrors.ErrPayoutPeriodComputed
	}

	from, to := month.Range(c.cfg.Location)
	income, err := c.ledger.SumPaidIncome(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if !income.IsPositive() {
		logger.Info("No subscription income, nothing to share")
		return &RevenueShareResult{Period: period, SkipReason: "no income"}, nil
	}

	usage, err := c.usageRepo.WatchTimeByCoach(ctx, from, to)
	if err != nil {
		return nil, err
	}

	run, records, err := splitRevenue(period, income, c.cfg.ShareRate, usage)
	if err != nil {
		var guardErr *domainErrors.AggregationGuardError
		if errors.As(err, &guardErr) {
			logger.Error("Revenue share aborted", zap.String("reason", guardErr.Reason))
		}
		return nil, err
	}
	if run == nil {
		logger.Info("No watch time recorded, nothing to share",
			zap.String("total_income", income.String()))
		return &RevenueShareResult{Period: period, SkipReason: "no watch time"}, nil
	}
	run.ComputedAt = c.now()

	if err := c.payoutRepo.SaveRun(ctx, run, records); err != nil {
		return nil, err
	}

	logger.Info("Revenue share computed",
		zap.String("total_income", run.TotalIncome.String()),
		zap.String("share_pool", run.SharePool.String()),
		zap.String("coach_total", run.CoachTotal.String()),
		zap.String("platform_share", run.PlatformShare.String()),
		zap.Int("coach_count", run.CoachCount))

	evt := event.New(event.PayoutComputed, map[string]interface{}{
		"period":         period,
		"total_income":   run.TotalIncome.String(),
		"coach_total":    run.CoachTotal.String(),
		"platform_share": run.PlatformShare.String(),
		"coach_count":    run.CoachCount,
	})
	if err := c.publisher.Publish(ctx, evt); err != nil {
		logger.Warn("Failed to publish billing event",
			zap.String("type", string(evt.Type)),
			zap.Error(err))
	}

	return &RevenueShareResult{Period: period, Run: run, Records: records}, nil
}

// ListPayouts returns payout records matching filter
func (c *RevenueShareCalculator) ListPayouts(ctx context.Context, filter repository.PayoutFilter) ([]*model.PayoutRecord, error) {
	return c.payoutRepo.List(ctx, filter)
}

// MarkTransferred records that a payout has been paid out to the coach.
func (c *RevenueShareCalculator) MarkTransferred(ctx context.Context, id int64) (*model.PayoutRecord, error) {
	record, err := c.payoutRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domainErrors.ErrPayoutNotFound
	}
	if record.IsTransferred {
		return nil, domainErrors.ErrPayoutAlreadyTransferred
	}

	at := c.now()
	if err := c.payoutRepo.MarkTransferred(ctx, id, at); err != nil {
		return nil, err
	}
	record.IsTransferred = true
	record.TransferredAt = &at

	c.logger.Info("Payout marked transferred",
		zap.Int64("payout_id", id),
		zap.String("coach_id", record.CoachID.String()),
		zap.String("period", record.Period))
	return record, nil
}

// splitRevenue floors each coach's share of income*rate in proportion to
// watch time; the platform keeps income minus the shares. It returns a nil
// run when no coach has watch time.
func splitRevenue(period string, income, rate decimal.Decimal, usage []model.UsageAggregate) (*model.PayoutRun, []*model.PayoutRecord, error) {
	hasWatchTime := false
	for _, u := range usage {
		if u.WatchSeconds != 0 {
			hasWatchTime = true
			break
		}
	}
	if !hasWatchTime {
		return nil, nil, nil
	}

	var total int64
	for _, u := range usage {
		if u.WatchSeconds < 0 {
			return nil, nil, &domainErrors.AggregationGuardError{
				Period: period,
				Reason: fmt.Sprintf("negative watch time %d for coach %s", u.WatchSeconds, u.CoachID),
			}
		}
		next := total + u.WatchSeconds
		if next < total {
			return nil, nil, &domainErrors.AggregationGuardError{Period: period, Reason: "total watch time overflows"}
		}
		total = next
	}
	if total <= 0 {
		return nil, nil, &domainErrors.AggregationGuardError{Period: period, Reason: "total watch time is not positive"}
	}

	pool := income.Mul(rate)
	totalWatch := decimal.NewFromInt(total)
	coachTotal := decimal.Zero

	records := make([]*model.PayoutRecord, 0, len(usage))
	for _, u := range usage {
		if u.WatchSeconds == 0 {
			continue
		}
		share, _ := pool.Mul(decimal.NewFromInt(u.WatchSeconds)).QuoRem(totalWatch, 0)
		coachTotal = coachTotal.Add(share)
		records = append(records, &model.PayoutRecord{
			CoachID:      u.CoachID,
			Period:       period,
			Amount:       share,
			WatchSeconds: u.WatchSeconds,
		})
	}

	run := &model.PayoutRun{
		Period:            period,
		TotalIncome:       income,
		ShareRate:         rate,
		SharePool:         pool,
		CoachTotal:        coachTotal,
		PlatformShare:     income.Sub(coachTotal),
		TotalWatchSeconds: total,
		CoachCount:        len(records),
	}
	return run, records, nil
}
