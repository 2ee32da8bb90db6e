package http_test

import (
	"context"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/Mattie1391/sportify-backend/internal/middleware/auth"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	handler "github.com/Mattie1391/sportify-backend/internal/adapter/handler/http"
)

// MockWebhookProcessor is a mock implementation of WebhookProcessor
type MockWebhookProcessor struct {
	mock.Mock
}

func (m *MockWebhookProcessor) Process(ctx context.Context, fields map[string]string) (*usecase.WebhookResult, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.WebhookResult), args.Error(1)
}

// MockSubscriptionUsecase is a mock implementation of SubscriptionUsecase
type MockSubscriptionUsecase struct {
	mock.Mock
}

func (m *MockSubscriptionUsecase) Checkout(ctx context.Context, userID, planID uuid.UUID) (*usecase.CheckoutResult, error) {
	args := m.Called(ctx, userID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CheckoutResult), args.Error(1)
}

func (m *MockSubscriptionUsecase) CancelAutoRenew(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionPeriod), args.Error(1)
}

func (m *MockSubscriptionUsecase) CurrentSubscription(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionPeriod), args.Error(1)
}

// MockRevenueShareUsecase is a mock implementation of RevenueShareUsecase
type MockRevenueShareUsecase struct {
	mock.Mock
}

func (m *MockRevenueShareUsecase) Compute(ctx context.Context, month model.BillingMonth) (*usecase.RevenueShareResult, error) {
	args := m.Called(ctx, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RevenueShareResult), args.Error(1)
}

func (m *MockRevenueShareUsecase) ListPayouts(ctx context.Context, filter repository.PayoutFilter) ([]*model.PayoutRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PayoutRecord), args.Error(1)
}

func (m *MockRevenueShareUsecase) MarkTransferred(ctx context.Context, id int64) (*model.PayoutRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRecord), args.Error(1)
}

// MockPlanLister is a mock implementation of PlanLister
type MockPlanLister struct {
	mock.Mock
}

func (m *MockPlanLister) ListPlans(ctx context.Context) ([]*model.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Plan), args.Error(1)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewCustomValidator()
	return e
}

// asUser stands in for the JWT middleware.
func asUser(user *auth.AuthUser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(auth.WithUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}
