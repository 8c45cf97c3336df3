package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/repository/common"
)

const settingsColumns = `id, commission_type, commission_value, is_commission_enabled,
	collaborator_commission_type, collaborator_commission_value, is_collaborator_commission_enabled,
	updated_by, created_at, updated_at`

// SettingsRepository хранит единственную запись глобальных настроек.
// Единственность обеспечивает уникальный столбец singleton.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*entity.GlobalSettings, error) {
	var row settingsRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+settingsColumns+` FROM global_settings WHERE singleton`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("settings repository: get %w", err)
	}
	return row.toEntity(), nil
}

func (r *SettingsRepository) Create(ctx context.Context, s *entity.GlobalSettings) error {
	err := r.insert(ctx, s, "")
	if common.IsUniqueViolation(err, "global_settings_singleton_key") {
		return apperror.ErrSettingsAlreadyExist
	}
	if err != nil {
		return fmt.Errorf("settings repository: create %w", err)
	}
	return nil
}

// GetOrCreate вставляет запись по умолчанию, если её нет. Проигравший гонку
// читает запись победителя.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, defaults *entity.GlobalSettings) (*entity.GlobalSettings, error) {
	s := *defaults
	err := r.insert(ctx, &s, "ON CONFLICT (singleton) DO NOTHING")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings repository: get or create %w", err)
	}
	return r.Get(ctx)
}

func (r *SettingsRepository) insert(ctx context.Context, s *entity.GlobalSettings, conflict string) error {
	query := `
		INSERT INTO global_settings (commission_type, commission_value, is_commission_enabled,
			collaborator_commission_type, collaborator_commission_value, is_collaborator_commission_enabled,
			updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ` + conflict + `
		RETURNING id
	`
	return r.db.GetContext(ctx, &s.ID, query,
		string(s.CommissionType), s.CommissionValue, s.IsCommissionEnabled,
		string(s.CollaboratorCommissionType), s.CollaboratorCommissionValue, s.IsCollaboratorCommissionEnabled,
		s.UpdatedBy, s.CreatedAt, s.UpdatedAt,
	)
}

func (r *SettingsRepository) Update(ctx context.Context, s *entity.GlobalSettings) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE global_settings SET
			commission_type = $1, commission_value = $2, is_commission_enabled = $3,
			collaborator_commission_type = $4, collaborator_commission_value = $5, is_collaborator_commission_enabled = $6,
			updated_by = $7, updated_at = $8
		WHERE singleton
	`,
		string(s.CommissionType), s.CommissionValue, s.IsCommissionEnabled,
		string(s.CollaboratorCommissionType), s.CollaboratorCommissionValue, s.IsCollaboratorCommissionEnabled,
		s.UpdatedBy, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("settings repository: update %w", err)
	}
	return common.ExpectAffected(result, apperror.ErrSettingsNotFound)
}

func (r *SettingsRepository) GetServiceOverride(ctx context.Context, serviceID uuid.UUID) (*entity.ServiceCommissionOverride, error) {
	var row overrideRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM service_commission_overrides WHERE service_id = $1`, serviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("settings repository: get override %w", err)
	}
	return row.toEntity(), nil
}

func (r *SettingsRepository) UpsertServiceOverride(ctx context.Context, o *entity.ServiceCommissionOverride) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO service_commission_overrides (service_id, commission_type, commission_value, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (service_id) DO UPDATE SET
			commission_type = EXCLUDED.commission_type,
			commission_value = EXCLUDED.commission_value,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, o.ServiceID, string(o.CommissionType), o.CommissionValue, o.IsActive, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if common.IsForeignKeyViolation(err, "") {
			return apperror.ErrServiceNotFound
		}
		return fmt.Errorf("settings repository: upsert override %w", err)
	}
	return nil
}

func (r *SettingsRepository) DeleteServiceOverride(ctx context.Context, serviceID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM service_commission_overrides WHERE service_id = $1`, serviceID); err != nil {
		return fmt.Errorf("settings repository: delete override %w", err)
	}
	return nil
}
