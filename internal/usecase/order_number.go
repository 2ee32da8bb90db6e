package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	orderNumberDayLayout = "20060102"
	orderSequenceDigits  = 4
	maxOrderSequence     = 9999
)

// OrderNumberGenerator issues YYYYMMDDNNNN order numbers, increasing within a day.
type OrderNumberGenerator struct {
	orderNumberRepo repository.OrderNumberRepository
	transactor      repository.Transactor
	location        *time.Location
	logger          *zap.Logger
}

// NewOrderNumberGenerator creates a new order number generator. Days are
// counted in loc.
func NewOrderNumberGenerator(
	orderNumberRepo repository.OrderNumberRepository,
	transactor repository.Transactor,
	loc *time.Location,
	logger *zap.Logger,
) *OrderNumberGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderNumberGenerator{
		orderNumberRepo: orderNumberRepo,
		transactor:      transactor,
		location:        loc,
		logger:          logger,
	}
}

// Next issues the next number of the day containing at. Concurrent callers
// for the same day are serialised by a storage lock held until the
// surrounding transaction commits.
func (g *OrderNumberGenerator) Next(ctx context.Context, at time.Time) (string, error) {
	day := at.In(g.location).Format(orderNumberDayLayout)

	var number string
	err := g.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := g.orderNumberRepo.LockDay(ctx, day); err != nil {
			return err
		}

		latest, err := g.orderNumberRepo.LatestWithPrefix(ctx, day)
		if err != nil {
			return err
		}

		next, err := nextOrderNumber(day, latest)
		if err != nil {
			return err
		}

		if err := g.orderNumberRepo.Insert(ctx, next, at); err != nil {
			return err
		}
		number = next
		return nil
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderSequenceExhausted) {
			g.logger.Error("Order number sequence exhausted", zap.String("day", day))
			return "", err
		}
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}

	g.logger.Debug("Order number issued", zap.String("order_number", number))
	return number, nil
}

// nextOrderNumber increments the trailing sequence of latest, starting the
// day at 0001 when latest is empty.
func nextOrderNumber(day, latest string) (string, error) {
	seq := 0
	if latest != "" {
		if len(latest) != len(day)+orderSequenceDigits || !strings.HasPrefix(latest, day) {
			return "", fmt.Errorf("unexpected order number %q for day %s", latest, day)
		}
		n, err := strconv.Atoi(latest[len(day):])
		if err != nil {
			return "", fmt.Errorf("unexpected order number %q: %w", latest, err)
		}
		seq = n
	}

	seq++
	if seq > maxOrderSequence {
		return "", domainErrors.ErrOrderSequenceExhausted
	}
	return fmt.Sprintf("%s%0*d", day, orderSequenceDigits, seq), nil
}
