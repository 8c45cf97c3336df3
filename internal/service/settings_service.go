package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// SettingsInput - изменение глобальных настроек. nil - не менять.
type SettingsInput struct {
	CommissionType                  *valueobject.CommissionType
	CommissionValue                 *decimal.Decimal
	IsCommissionEnabled             *bool
	CollaboratorCommissionType      *valueobject.CommissionType
	CollaboratorCommissionValue     *decimal.Decimal
	IsCollaboratorCommissionEnabled *bool
}

// ServiceOverrideInput - комиссия исполнителя для услуги.
type ServiceOverrideInput struct {
	CommissionType  valueobject.CommissionType
	CommissionValue decimal.Decimal
	IsActive        bool
}

// SettingsService управляет единственной записью глобальных настроек и
// переопределениями комиссии по услугам. Чтения кэшируются, любая запись
// через сервис сбрасывает кэш до возврата.
type SettingsService struct {
	repo     repository.SettingsRepository
	services repository.ServiceRepository
	cache    *CacheService
	ttl      time.Duration
	now      func() time.Time

	// writeMu сериализует изменения единственной записи.
	writeMu sync.Mutex
}

func NewSettingsService(repo repository.SettingsRepository, services repository.ServiceRepository, cache *CacheService, ttl time.Duration) *SettingsService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SettingsService{
		repo:     repo,
		services: services,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetSettings возвращает настройки, создавая запись по умолчанию при первом обращении.
func (s *SettingsService) GetSettings(ctx context.Context) (*entity.GlobalSettings, error) {
	value, err := s.cache.GetOrSet(GlobalSettingsCacheKey(), s.ttl, func() (interface{}, error) {
		return s.repo.GetOrCreate(ctx, entity.DefaultGlobalSettings(s.now().UTC()))
	})
	if err != nil {
		return nil, err
	}
	settings := *value.(*entity.GlobalSettings)
	return &settings, nil
}

type cachedOverride struct {
	override *entity.ServiceCommissionOverride
}

// GetServiceOverride возвращает nil, nil если для услуги нет переопределения.
func (s *SettingsService) GetServiceOverride(ctx context.Context, serviceID uuid.UUID) (*entity.ServiceCommissionOverride, error) {
	value, err := s.cache.GetOrSet(ServiceOverrideCacheKey(serviceID), s.ttl, func() (interface{}, error) {
		o, err := s.repo.GetServiceOverride(ctx, serviceID)
		if err != nil {
			return nil, err
		}
		return cachedOverride{override: o}, nil
	})
	if err != nil {
		return nil, err
	}
	cached := value.(cachedOverride)
	if cached.override == nil {
		return nil, nil
	}
	o := *cached.override
	return &o, nil
}

// CreateSettings создаёт запись настроек. Вторая запись - ошибка валидации.
func (s *SettingsService) CreateSettings(ctx context.Context, actor entity.Actor, input SettingsInput) (*entity.GlobalSettings, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.invalidate()

	now := s.now().UTC()
	settings := entity.DefaultGlobalSettings(now)
	applySettingsInput(settings, input)
	settings.UpdatedBy = actor.Ref()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings меняет существующую запись. Изменение не затрагивает
// комиссии уже созданных заказов.
func (s *SettingsService) UpdateSettings(ctx context.Context, actor entity.Actor, input SettingsInput) (*entity.GlobalSettings, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.invalidate()

	now := s.now().UTC()
	settings, err := s.repo.GetOrCreate(ctx, entity.DefaultGlobalSettings(now))
	if err != nil {
		return nil, err
	}

	applySettingsInput(settings, input)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	settings.UpdatedBy = actor.Ref()
	settings.UpdatedAt = now

	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *SettingsService) SetServiceOverride(ctx context.Context, actor entity.Actor, serviceID uuid.UUID, input ServiceOverrideInput) (*entity.ServiceCommissionOverride, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	override := &entity.ServiceCommissionOverride{
		ServiceID:       serviceID,
		CommissionType:  input.CommissionType,
		CommissionValue: valueobject.RoundMoney(input.CommissionValue),
		IsActive:        input.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := override.Validate(); err != nil {
		return nil, err
	}

	defer s.cache.Delete(ServiceOverrideCacheKey(serviceID))
	if err := s.repo.UpsertServiceOverride(ctx, override); err != nil {
		return nil, err
	}
	return override, nil
}

func (s *SettingsService) DeleteServiceOverride(ctx context.Context, actor entity.Actor, serviceID uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperror.ErrForbidden
	}
	defer s.cache.Delete(ServiceOverrideCacheKey(serviceID))
	return s.repo.DeleteServiceOverride(ctx, serviceID)
}

func (s *SettingsService) invalidate() {
	s.cache.InvalidateByPrefix(GlobalSettingsCacheKey())
}

func applySettingsInput(s *entity.GlobalSettings, in SettingsInput) {
	if in.CommissionType != nil {
		s.CommissionType = *in.CommissionType
	}
	if in.CommissionValue != nil {
		s.CommissionValue = valueobject.RoundMoney(*in.CommissionValue)
	}
	if in.IsCommissionEnabled != nil {
		s.IsCommissionEnabled = *in.IsCommissionEnabled
	}
	if in.CollaboratorCommissionType != nil {
		s.CollaboratorCommissionType = *in.CollaboratorCommissionType
	}
	if in.CollaboratorCommissionValue != nil {
		s.CollaboratorCommissionValue = valueobject.RoundMoney(*in.CollaboratorCommissionValue)
	}
	if in.IsCollaboratorCommissionEnabled != nil {
		s.IsCollaboratorCommissionEnabled = *in.IsCollaboratorCommissionEnabled
	}
}
