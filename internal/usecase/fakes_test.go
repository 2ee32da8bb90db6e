package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/event"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/provider"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type txKey struct{}

// memoryStore keeps subscription periods and order numbers in memory. WithinTransaction
// restores the tables when fn fails, like a rolled back transaction.
type memoryStore struct {
	mu           sync.Mutex
	nextID       int64
	periods      map[int64]*model.SubscriptionPeriod
	orderNumbers []string
	lockCalls    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{periods: make(map[int64]*model.SubscriptionPeriod)}
}

var (
	_ repository.Transactor             = (*memoryStore)(nil)
	_ repository.SubscriptionRepository = (*memoryStore)(nil)
	_ repository.OrderNumberRepository  = (*memoryStore)(nil)
)

func (s *memoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	periods := make(map[int64]*model.SubscriptionPeriod, len(s.periods))
	for id, p := range s.periods {
		periods[id] = clonePeriod(p)
	}
	orderNumbers := append([]string(nil), s.orderNumbers...)
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.periods = periods
		s.orderNumbers = orderNumbers
		s.nextID = nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

// Subscription periods

func (s *memoryStore) Create(ctx context.Context, period *model.SubscriptionPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(period); err != nil {
		return err
	}
	s.nextID++
	period.ID = s.nextID
	period.CreatedAt = time.Now()
	s.periods[period.ID] = clonePeriod(period)
	return nil
}

func (s *memoryStore) Save(ctx context.Context, period *model.SubscriptionPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.periods[period.ID]; !ok {
		return fmt.Errorf("period %d not found", period.ID)
	}
	if err := s.checkUnique(period); err != nil {
		return err
	}
	s.periods[period.ID] = clonePeriod(period)
	return nil
}

func (s *memoryStore) checkUnique(period *model.SubscriptionPeriod) error {
	for id, p := range s.periods {
		if id == period.ID {
			continue
		}
		if p.OrderNumber == period.OrderNumber {
			return fmt.Errorf("%w: order number %s", domainErrors.ErrDuplicateDelivery, p.OrderNumber)
		}
		if p.GatewayAgreementID != nil && period.GatewayAgreementID != nil &&
			*p.GatewayAgreementID == *period.GatewayAgreementID &&
			p.PurchasedAt != nil && period.PurchasedAt != nil &&
			p.PurchasedAt.Equal(*period.PurchasedAt) {
			return fmt.Errorf("%w: agreement %s", domainErrors.ErrDuplicateDelivery, *p.GatewayAgreementID)
		}
	}
	return nil
}

func (s *memoryStore) LockUserPeriods(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockCalls++
	return nil
}

func (s *memoryStore) FindByID(ctx context.Context, id int64) (*model.SubscriptionPeriod, error) {
	return s.find(func(p *model.SubscriptionPeriod) bool { return p.ID == id }, nil), nil
}

func (s *memoryStore) FindByGatewayOrderRef(ctx context.Context, ref string) (*model.SubscriptionPeriod, error) {
	return s.find(func(p *model.SubscriptionPeriod) bool {
		return p.GatewayOrderRef != nil && *p.GatewayOrderRef == ref
	}, nil), nil
}

func (s *memoryStore) FindLatestByAgreement(ctx context.Context, agreementID string) (*model.SubscriptionPeriod, error) {
	return s.find(func(p *model.SubscriptionPeriod) bool {
		return p.IsPaid && p.GatewayAgreementID != nil && *p.GatewayAgreementID == agreementID
	}, func(a, b *model.SubscriptionPeriod) bool {
		if !a.PurchasedAt.Equal(*b.PurchasedAt) {
			return a.PurchasedAt.After(*b.PurchasedAt)
		}
		return a.ID > b.ID
	}), nil
}

func (s *memoryStore) FindByAgreementAndPurchasedAt(ctx context.Context, agreementID string, purchasedAt time.Time) (*model.SubscriptionPeriod, error) {
	return s.find(func(p *model.SubscriptionPeriod) bool {
		return p.GatewayAgreementID != nil && *p.GatewayAgreementID == agreementID &&
			p.PurchasedAt != nil && p.PurchasedAt.Equal(purchasedAt)
	}, nil), nil
}

func (s *memoryStore) FindNextByAgreement(ctx context.Context, agreementID string, at time.Time) (*model.SubscriptionPeriod, error) {
	return s.find(func(p *model.SubscriptionPeriod) bool {
		return p.IsPaid && p.GatewayAgreementID != nil && *p.GatewayAgreementID == agreementID &&
			p.StartAt != nil && p.StartAt.After(at)
	}, func(a, b *model.SubscriptionPeriod) bool { return a.StartAt.Before(*b.StartAt) }), nil
}

func (s *memoryStore) FindRenewingByUser(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	return s.find(func(p *model.SubscriptionPeriod) bool {
		return p.UserID == userID && p.IsRenewal
	}, func(a, b *model.SubscriptionPeriod) bool { return a.ID > b.ID }), nil
}

func (s *memoryStore) FindActiveByUser(ctx context.Context, userID uuid.UUID, at time.Time) (*model.SubscriptionPeriod, error) {
	return s.find(func(p *model.SubscriptionPeriod) bool {
		return p.UserID == userID && p.IsActiveAt(at)
	}, func(a, b *model.SubscriptionPeriod) bool { return a.StartAt.After(*b.StartAt) }), nil
}

func (s *memoryStore) ClearRenewal(ctx context.Context, userID uuid.UUID, exceptID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.periods {
		if p.UserID == userID && p.IsRenewal && id != exceptID {
			p.IsRenewal = false
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) CapOpenPeriods(ctx context.Context, userID uuid.UUID, at time.Time, exceptID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.periods {
		if p.UserID == userID && p.IsPaid && p.StartAt != nil && p.StartAt.Before(at) &&
			p.EndAt != nil && p.EndAt.After(at) && id != exceptID {
			end := at
			p.EndAt = &end
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) SumPaidIncome(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, p := range s.periods {
		if p.IsPaid && p.PurchasedAt != nil && !p.PurchasedAt.Before(from) && p.PurchasedAt.Before(to) {
			total = total.Add(p.Price)
		}
	}
	return total, nil
}

func (s *memoryStore) find(match func(*model.SubscriptionPeriod) bool, less func(a, b *model.SubscriptionPeriod) bool) *model.SubscriptionPeriod {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []*model.SubscriptionPeriod
	for _, p := range s.periods {
		if match(p) {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	if less == nil {
		less = func(a, b *model.SubscriptionPeriod) bool { return a.ID < b.ID }
	}
	sort.Slice(found, func(i, j int) bool { return less(found[i], found[j]) })
	return clonePeriod(found[0])
}

// userPeriods returns the user's rows ordered by id.
func (s *memoryStore) userPeriods(userID uuid.UUID) []*model.SubscriptionPeriod {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.SubscriptionPeriod
	for _, p := range s.periods {
		if p.UserID == userID {
			out = append(out, clonePeriod(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Order numbers

func (s *memoryStore) LockDay(ctx context.Context, day string) error {
	return nil
}

func (s *memoryStore) LatestWithPrefix(ctx context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := ""
	for _, n := range s.orderNumbers {
		if strings.HasPrefix(n, prefix) && n > latest {
			latest = n
		}
	}
	return latest, nil
}

func (s *memoryStore) Insert(ctx context.Context, number string, issuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.orderNumbers {
		if n == number {
			return fmt.Errorf("order number %s already issued", number)
		}
	}
	s.orderNumbers = append(s.orderNumbers, number)
	return nil
}

type payoutStore struct {
	mu       sync.Mutex
	nextID   int64
	runs     map[string]*model.PayoutRun
	records  []*model.PayoutRecord
	usage    []model.UsageAggregate
	usageErr error
}

func newPayoutStore() *payoutStore {
	return &payoutStore{runs: make(map[string]*model.PayoutRun)}
}

var (
	_ repository.PayoutRepository = (*payoutStore)(nil)
	_ repository.UsageRepository  = (*payoutStore)(nil)
)

func (s *payoutStore) RunExists(ctx context.Context, period string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[period]
	return ok, nil
}

func (s *payoutStore) SaveRun(ctx context.Context, run *model.PayoutRun, records []*model.PayoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.Period]; ok {
		return domainErrors.ErrPayoutPeriodComputed
	}
	s.runs[run.Period] = run
	for _, r := range records {
		s.nextID++
		r.ID = s.nextID
		copied := *r
		s.records = append(s.records, &copied)
	}
	return nil
}

func (s *payoutStore) GetRun(ctx context.Context, period string) (*model.PayoutRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[period], nil
}

func (s *payoutStore) List(ctx context.Context, filter repository.PayoutFilter) ([]*model.PayoutRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.PayoutRecord
	for _, r := range s.records {
		if filter.Period != "" && r.Period != filter.Period {
			continue
		}
		if filter.CoachID != nil && r.CoachID != *filter.CoachID {
			continue
		}
		if filter.IsTransferred != nil && r.IsTransferred != *filter.IsTransferred {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (s *payoutStore) FindByID(ctx context.Context, id int64) (*model.PayoutRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *payoutStore) MarkTransferred(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id && !r.IsTransferred {
			r.IsTransferred = true
			r.TransferredAt = &at
			return nil
		}
	}
	return domainErrors.ErrPayoutAlreadyTransferred
}

func (s *payoutStore) WatchTimeByCoach(ctx context.Context, from, to time.Time) ([]model.UsageAggregate, error) {
	if s.usageErr != nil {
		return nil, s.usageErr
	}
	return s.usage, nil
}

func clonePeriod(p *model.SubscriptionPeriod) *model.SubscriptionPeriod {
	c := *p
	c.GatewayOrderRef = cloneString(p.GatewayOrderRef)
	c.GatewayAgreementID = cloneString(p.GatewayAgreementID)
	c.PaymentMethod = cloneString(p.PaymentMethod)
	c.InvoiceReference = cloneString(p.InvoiceReference)
	c.PurchasedAt = cloneTime(p.PurchasedAt)
	c.StartAt = cloneTime(p.StartAt)
	c.EndAt = cloneTime(p.EndAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var _ repository.NotificationRepository = (*notificationLog)(nil)

type notificationLog struct {
	mu      sync.Mutex
	records []*model.GatewayNotification
}

func (l *notificationLog) Save(ctx context.Context, n *model.GatewayNotification) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, n)
	return nil
}

func (l *notificationLog) last() *model.GatewayNotification {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return nil
	}
	return l.records[len(l.records)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.BillingEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, evt event.BillingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type memoryLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired []string
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: make(map[string]bool)}
}

func (l *memoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (repository.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, repository.ErrLockNotAcquired
	}
	l.held[key] = true
	l.acquired = append(l.acquired, key)
	return &memoryLock{locker: l, key: key}, nil
}

type memoryLock struct {
	locker *memoryLocker
	key    string
}

func (l *memoryLock) Release(ctx context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	delete(l.locker.held, l.key)
	return nil
}

// MockGateway is a mock implementation of provider.RecurringGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) BuildCheckout(ctx context.Context, req *provider.CheckoutRequest) (*provider.CheckoutForm, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutForm), args.Error(1)
}

func (m *MockGateway) CancelRecurring(ctx context.Context, agreementID string) error {
	args := m.Called(ctx, agreementID)
	return args.Error(0)
}

func (m *MockGateway) Name() string {
	return "mock"
}

// MockPlanRepository is a mock implementation of repository.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetAll(ctx context.Context) ([]*model.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plan), args.Error(1)
}

func (m *MockPlanRepository) Upsert(ctx context.Context, plan *model.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}
