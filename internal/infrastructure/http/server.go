package http

import (
	"context"
	"fmt"
	"net/http"

	handlers "github.com/Mattie1391/sportify-backend/internal/adapter/handler/http"
	"github.com/Mattie1391/sportify-backend/internal/config"
	"github.com/Mattie1391/sportify-backend/internal/middleware/auth"
	"github.com/Mattie1391/sportify-backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by Server
type Handlers struct {
	Plans        *handlers.PlansHandler
	Subscription *handlers.SubscriptionHandler
	Webhook      *handlers.WebhookHandler
	Payout       *handlers.PayoutHandler
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	handlers Handlers
}

func NewServer(cfg *config.Config, log *zap.Logger, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewCustomValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(logger.NewEchoRequestLogger(log, "/health"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PATCH},
	}))

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		handlers: h,
	}
	s.setupRoutes()
	return s
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}

	v1 := s.echo.Group("/api/v1")

	// Public routes
	v1.GET("/plans", s.handlers.Plans.GetPlans)

	// Gateway callbacks are authenticated by their signature
	v1.POST("/payments/ecpay/notify", s.handlers.Webhook.HandleNotify)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("/checkout", s.handlers.Subscription.Checkout)
	subscriptions.POST("/cancel", s.handlers.Subscription.CancelAutoRenew)
	subscriptions.GET("/current", s.handlers.Subscription.GetCurrentSubscription)

	admin := protected.Group("/admin", auth.RequireRole(s.config.JWT.AdminRole, s.logger))
	admin.GET("/payouts", s.handlers.Payout.ListPayouts)
	admin.PATCH("/payouts/:id/transfer", s.handlers.Payout.MarkTransferred)
	admin.POST("/revenue-share/runs", s.handlers.Payout.RunRevenueShare)
}
