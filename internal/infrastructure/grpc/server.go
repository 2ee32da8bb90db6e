package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/config"
	"github.com/Mattie1391/sportify-backend/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthCheckInterval = 15 * time.Second

// HealthCheck probes a dependency; a nil error means healthy
type HealthCheck func(ctx context.Context) error

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	check    HealthCheck
	listener net.Listener
	stop     chan struct{}
}

func NewServer(cfg *config.Config, logger *zap.Logger, check HealthCheck) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		health: health.NewServer(),
		check:  check,
		stop:   make(chan struct{}),
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.GRPC.Host, s.config.Server.GRPC.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.server = grpc.NewServer(
		grpc.UnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(s.logger)),
		grpc.StreamInterceptor(logger.NewGrpcStreamServerInterceptor(s.logger)),
	)
	healthpb.RegisterHealthServer(s.server, s.health)

	s.updateHealth()
	go s.watchHealth()

	s.logger.Info("Starting gRPC server", zap.String("address", addr))

	return s.server.Serve(listener)
}

func (s *Server) watchHealth() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateHealth()
		case <-s.stop:
			return
		}
	}
}

func (s *Server) updateHealth() {
	status := healthpb.HealthCheckResponse_SERVING
	if s.check != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.check(ctx); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.config.Service.Name, status)
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	s.health.Shutdown()
	if s.server != nil {
		s.server.GracefulStop()
	}
	return nil
}
