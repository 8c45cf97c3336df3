package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order, history *entity.StatusHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	year := order.CreatedAt.Year()
	r.s.sequences[year]++
	order.OrderNumber = entity.FormatOrderNumber(year, r.s.sequences[year])
	order.Version = 1

	r.s.orders[order.ID] = cloneOrder(order)
	if history != nil {
		h := *history
		r.s.history = append(r.s.history, &h)
	}
	return nil
}

func (r *OrderRepository) Save(ctx context.Context, change repository.OrderChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.orders[change.Order.ID]
	if !ok {
		return apperror.ErrOrderNotFound
	}
	if existing.Version != change.ExpectedVersion {
		return apperror.ErrConcurrentModification
	}

	if change.UpdatedLivrable != nil {
		if _, ok := r.s.livrables[change.UpdatedLivrable.ID]; !ok {
			return apperror.ErrLivrableNotFound
		}
	}

	stored := cloneOrder(change.Order)
	stored.Version = change.ExpectedVersion + 1
	r.s.orders[stored.ID] = stored
	change.Order.Version = stored.Version

	if change.NewLivrable != nil {
		r.s.livrables[change.NewLivrable.ID] = cloneLivrable(change.NewLivrable)
	}
	if change.UpdatedLivrable != nil {
		r.s.livrables[change.UpdatedLivrable.ID] = cloneLivrable(change.UpdatedLivrable)
	}
	if change.History != nil {
		h := *change.History
		r.s.history = append(r.s.history, &h)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	o := cloneOrder(stored)
	if u, ok := r.s.users[o.ClientID]; ok {
		o.Client = cloneUser(u)
	}
	if o.CollaboratorID != nil {
		if u, ok := r.s.users[*o.CollaboratorID]; ok {
			o.Collaborator = cloneUser(u)
		}
	}
	if svc, ok := r.s.services[o.ServiceID]; ok {
		c := *svc
		o.Service = &c
	}
	o.Livrables = r.s.livrablesOf(o.ID)
	return o, nil
}

func (r *OrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Order, error) {
	return r.filter(func(o *entity.Order) bool { return o.ClientID == clientID }), nil
}

func (r *OrderRepository) ListByCollaborator(ctx context.Context, collaboratorID uuid.UUID) ([]*entity.Order, error) {
	return r.filter(func(o *entity.Order) bool { return o.IsAssignedTo(collaboratorID) }), nil
}

func (r *OrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, int, error) {
	all := r.filter(func(o *entity.Order) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		if f.ClientID != nil && o.ClientID != *f.ClientID {
			return false
		}
		if f.CollaboratorID != nil && !o.IsAssignedTo(*f.CollaboratorID) {
			return false
		}
		return true
	})

	total := len(all)
	if f.Offset >= total {
		return []*entity.Order{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return all[f.Offset:end], total, nil
}

func (r *OrderRepository) ListDeadlineBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error) {
	return r.filter(func(o *entity.Order) bool {
		return !o.Status.IsTerminal() && !o.DeadlineAt.Before(from) && o.DeadlineAt.Before(to)
	}), nil
}

func (r *OrderRepository) ListWithOutstandingPayment(ctx context.Context) ([]*entity.Order, error) {
	return r.filter(func(o *entity.Order) bool {
		return o.Status != valueobject.OrderStatusCancelled && o.RemainingPayment().IsPositive()
	}), nil
}

// filter возвращает копии заказов, новые первыми.
func (r *OrderRepository) filter(keep func(*entity.Order) bool) []*entity.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*entity.Order, 0)
	for _, o := range r.s.orders {
		if keep(o) {
			result = append(result, cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

type LivrableRepository struct {
	s *Store
}

func (r *LivrableRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Livrable, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.livrables[id]
	if !ok {
		return nil, apperror.ErrLivrableNotFound
	}
	return cloneLivrable(l), nil
}

func (r *LivrableRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Livrable, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.livrablesOf(orderID), nil
}

type HistoryRepository struct {
	s *Store
}

func (r *HistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.StatusHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*entity.StatusHistory, 0)
	for i := len(r.s.history) - 1; i >= 0; i-- {
		h := r.s.history[i]
		if h.OrderID == orderID {
			c := *h
			result = append(result, &c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type StatusRepository struct {
	s *Store
}

func (r *StatusRepository) GetByName(ctx context.Context, name valueobject.OrderStatus) (*entity.Status, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.statuses[name]
	if !ok {
		return nil, apperror.New(apperror.ErrCodeConfiguration, "статус "+string(name)+" не заведён в справочнике")
	}
	c := *st
	return &c, nil
}
