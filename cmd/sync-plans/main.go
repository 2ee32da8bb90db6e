package main

import (
	"context"
	"flag"
	"log"

	"github.com/Mattie1391/sportify-backend/internal/config"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/database"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	"github.com/Mattie1391/sportify-backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	plansPath := flag.String("file", "configs/example/plans.yaml", "plan catalogue YAML")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)
	planService := usecase.NewPlanService(repos.Plan, zapLogger)

	zapLogger.Info("Syncing plans from YAML", zap.String("path", *plansPath))

	plans, err := loadPlansFromYAML(*plansPath)
	if err != nil {
		zapLogger.Fatal("Failed to load plans from YAML", zap.Error(err))
	}

	synced, err := planService.SyncPlans(context.Background(), plans)
	if err != nil {
		zapLogger.Fatal("Failed to sync plans",
			zap.Int("synced", synced),
			zap.Error(err))
	}

	zapLogger.Info("Plan sync completed", zap.Int("plans_synced", synced))
}
