package repository

import (
	"github.com/jmoiron/sqlx"

	domain "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
)

var (
	_ domain.OrderRepository        = (*OrderRepository)(nil)
	_ domain.LivrableRepository     = (*LivrableRepository)(nil)
	_ domain.HistoryRepository      = (*HistoryRepository)(nil)
	_ domain.StatusRepository       = (*StatusRepository)(nil)
	_ domain.UserRepository         = (*UserRepository)(nil)
	_ domain.ServiceRepository      = (*ServiceRepository)(nil)
	_ domain.NotificationRepository = (*NotificationRepository)(nil)
	_ domain.SettingsRepository     = (*SettingsRepository)(nil)
)

// Repositories - набор Postgres репозиториев на одном пуле соединений.
type Repositories struct {
	Orders        *OrderRepository
	Livrables     *LivrableRepository
	History       *HistoryRepository
	Statuses      *StatusRepository
	Users         *UserRepository
	Services      *ServiceRepository
	Notifications *NotificationRepository
	Settings      *SettingsRepository
}

func New(db *sqlx.DB) *Repositories {
	return &Repositories{
		Orders:        NewOrderRepository(db),
		Livrables:     NewLivrableRepository(db),
		History:       NewHistoryRepository(db),
		Statuses:      NewStatusRepository(db),
		Users:         NewUserRepository(db),
		Services:      NewServiceRepository(db),
		Notifications: NewNotificationRepository(db),
		Settings:      NewSettingsRepository(db),
	}
}
