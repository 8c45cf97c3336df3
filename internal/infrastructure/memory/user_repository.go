package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return apperror.Validation("пользователь с таким email или именем уже существует")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) ListActiveAdmins(ctx context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*entity.User, 0)
	for _, u := range r.s.users {
		if u.IsAdmin() && u.IsActive {
			result = append(result, cloneUser(u))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperror.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

type ServiceRepository struct {
	s *Store
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	svc, ok := r.s.services[id]
	if !ok {
		return nil, apperror.ErrServiceNotFound
	}
	c := *svc
	return &c, nil
}

// List возвращает услуги, упорядоченные по названию.
func (r *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Service, 0, len(r.s.services))
	for _, svc := range r.s.services {
		if activeOnly && !svc.IsActive {
			continue
		}
		c := *svc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ServiceRepository) Create(ctx context.Context, svc *entity.Service) error {
	r.s.AddService(svc)
	return nil
}
