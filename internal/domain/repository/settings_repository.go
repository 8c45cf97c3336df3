package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
)

type SettingsRepository interface {
	// Get возвращает apperror.ErrSettingsNotFound, если запись не создана.
	Get(ctx context.Context) (*entity.GlobalSettings, error)
	// Create возвращает apperror.ErrSettingsAlreadyExist, если запись уже есть.
	Create(ctx context.Context, settings *entity.GlobalSettings) error
	// GetOrCreate создаёт запись один раз; при гонке возвращает запись победителя.
	GetOrCreate(ctx context.Context, defaults *entity.GlobalSettings) (*entity.GlobalSettings, error)
	Update(ctx context.Context, settings *entity.GlobalSettings) error

	// GetServiceOverride возвращает nil, nil если переопределения нет.
	GetServiceOverride(ctx context.Context, serviceID uuid.UUID) (*entity.ServiceCommissionOverride, error)
	UpsertServiceOverride(ctx context.Context, override *entity.ServiceCommissionOverride) error
	DeleteServiceOverride(ctx context.Context, serviceID uuid.UUID) error
}
