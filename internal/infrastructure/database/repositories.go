package database

import (
	"github.com/Mattie1391/sportify-backend/internal/adapter/repository"
	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Transactor   domainRepo.Transactor
	Subscription domainRepo.SubscriptionRepository
	OrderNumber  domainRepo.OrderNumberRepository
	Plan         domainRepo.PlanRepository
	Payout       domainRepo.PayoutRepository
	Usage        domainRepo.UsageRepository
	Notification domainRepo.NotificationRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Transactor:   repository.NewTransactor(db),
		Subscription: repository.NewSubscriptionRepository(db, logger),
		OrderNumber:  repository.NewOrderNumberRepository(db, logger),
		Plan:         repository.NewPlanRepository(db, logger),
		Payout:       repository.NewPayoutRepository(db, logger),
		Usage:        repository.NewUsageRepository(db, logger),
		Notification: repository.NewNotificationRepository(db, logger),
	}
}
