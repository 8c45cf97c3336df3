package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

type SettingsRepository struct {
	s *Store
}

func (r *SettingsRepository) Get(ctx context.Context) (*entity.GlobalSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.settings == nil {
		return nil, apperror.ErrSettingsNotFound
	}
	c := *r.s.settings
	return &c, nil
}

func (r *SettingsRepository) Create(ctx context.Context, settings *entity.GlobalSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.settings != nil {
		return apperror.ErrSettingsAlreadyExist
	}
	settings.ID = 1
	c := *settings
	r.s.settings = &c
	return nil
}

func (r *SettingsRepository) GetOrCreate(ctx context.Context, defaults *entity.GlobalSettings) (*entity.GlobalSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.settings == nil {
		c := *defaults
		c.ID = 1
		r.s.settings = &c
	}
	c := *r.s.settings
	return &c, nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings *entity.GlobalSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.settings == nil {
		return apperror.ErrSettingsNotFound
	}
	c := *settings
	c.ID = r.s.settings.ID
	c.CreatedAt = r.s.settings.CreatedAt
	r.s.settings = &c
	return nil
}

func (r *SettingsRepository) GetServiceOverride(ctx context.Context, serviceID uuid.UUID) (*entity.ServiceCommissionOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.overrides[serviceID]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (r *SettingsRepository) UpsertServiceOverride(ctx context.Context, override *entity.ServiceCommissionOverride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[override.ServiceID]; !ok {
		return apperror.ErrServiceNotFound
	}
	if existing, ok := r.s.overrides[override.ServiceID]; ok {
		override.CreatedAt = existing.CreatedAt
	}
	c := *override
	r.s.overrides[override.ServiceID] = &c
	return nil
}

func (r *SettingsRepository) DeleteServiceOverride(ctx context.Context, serviceID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.overrides, serviceID)
	return nil
}
