// Package memory - хранилище в памяти процесса. Повторяет контракты
// Postgres-репозиториев (проверка версии, единственность настроек,
// нумерация заказов) и используется в тестах и при STORAGE_DRIVER=memory.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

var (
	_ repository.OrderRepository        = (*OrderRepository)(nil)
	_ repository.LivrableRepository     = (*LivrableRepository)(nil)
	_ repository.HistoryRepository      = (*HistoryRepository)(nil)
	_ repository.StatusRepository       = (*StatusRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.ServiceRepository      = (*ServiceRepository)(nil)
	_ repository.NotificationRepository = (*NotificationRepository)(nil)
	_ repository.SettingsRepository     = (*SettingsRepository)(nil)
)

// Store хранит все сущности под одним мьютексом.
type Store struct {
	mu            sync.RWMutex
	orders        map[uuid.UUID]*entity.Order
	livrables     map[uuid.UUID]*entity.Livrable
	history       []*entity.StatusHistory
	statuses      map[valueobject.OrderStatus]*entity.Status
	users         map[uuid.UUID]*entity.User
	services      map[uuid.UUID]*entity.Service
	notifications map[uuid.UUID]*entity.Notification
	settings      *entity.GlobalSettings
	overrides     map[uuid.UUID]*entity.ServiceCommissionOverride
	sequences     map[int]int64
}

// NewStore создаёт хранилище с заведённым справочником статусов.
func NewStore() *Store {
	s := &Store{
		orders:        make(map[uuid.UUID]*entity.Order),
		livrables:     make(map[uuid.UUID]*entity.Livrable),
		statuses:      make(map[valueobject.OrderStatus]*entity.Status),
		users:         make(map[uuid.UUID]*entity.User),
		services:      make(map[uuid.UUID]*entity.Service),
		notifications: make(map[uuid.UUID]*entity.Notification),
		overrides:     make(map[uuid.UUID]*entity.ServiceCommissionOverride),
		sequences:     make(map[int]int64),
	}
	for i, name := range valueobject.AllOrderStatuses() {
		s.statuses[name] = &entity.Status{ID: int64(i + 1), Name: name}
	}
	return s
}

func (s *Store) Orders() *OrderRepository               { return &OrderRepository{s: s} }
func (s *Store) Livrables() *LivrableRepository         { return &LivrableRepository{s: s} }
func (s *Store) History() *HistoryRepository            { return &HistoryRepository{s: s} }
func (s *Store) Statuses() *StatusRepository            { return &StatusRepository{s: s} }
func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) Services() *ServiceRepository           { return &ServiceRepository{s: s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }
func (s *Store) Settings() *SettingsRepository          { return &SettingsRepository{s: s} }

// AddService заводит услугу каталога.
func (s *Store) AddService(svc *entity.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *svc
	s.services[svc.ID] = &c
}

// RemoveStatus удаляет статус из справочника.
func (s *Store) RemoveStatus(name valueobject.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, name)
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	if o.CollaboratorID != nil {
		id := *o.CollaboratorID
		c.CollaboratorID = &id
	}
	c.CommissionFinalizedAt = cloneTime(o.CommissionFinalizedAt)
	c.CompletedAt = cloneTime(o.CompletedAt)
	c.Client, c.Collaborator, c.Service, c.Livrables = nil, nil, nil, nil
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneLivrable(l *entity.Livrable) *entity.Livrable {
	c := *l
	if l.FilePath != nil {
		p := *l.FilePath
		c.FilePath = &p
	}
	return &c
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

// livrablesOf возвращает результаты заказа по времени создания. Вызывать под блокировкой.
func (s *Store) livrablesOf(orderID uuid.UUID) []*entity.Livrable {
	var result []*entity.Livrable
	for _, l := range s.livrables {
		if l.OrderID == orderID {
			result = append(result, cloneLivrable(l))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
