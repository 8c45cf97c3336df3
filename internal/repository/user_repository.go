package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/repository/common"
)

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, username, email, phone, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Phone, user.PasswordHash, string(user.Role), user.IsActive, user.CreatedAt, user.UpdatedAt,
	); err != nil {
		if common.IsUniqueViolation(err, "") {
			return apperror.Validation("пользователь с таким email или именем уже существует")
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row, err := common.GetByField[userRow](ctx, r.db, "users", "lower(email)", email, apperror.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	row, err := common.GetByField[userRow](ctx, r.db, "users", "id", id, apperror.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *UserRepository) ListActiveAdmins(ctx context.Context) ([]*entity.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM users WHERE role = 'admin' AND is_active ORDER BY username`); err != nil {
		return nil, fmt.Errorf("user repository: list admins %w", err)
	}

	users := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toEntity())
	}
	return users, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("user repository: set active %w", err)
	}
	return common.ExpectAffected(result, apperror.ErrUserNotFound)
}

// ServiceRepository читает каталог услуг.
type ServiceRepository struct {
	db *sqlx.DB
}

func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	row, err := common.GetByField[serviceRow](ctx, r.db, "services", "id", id, apperror.ErrServiceNotFound)
	if err != nil {
		return nil, err
	}
	return &entity.Service{ID: row.ID, Name: row.Name, IsActive: row.IsActive}, nil
}

func (r *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Service, error) {
	query := `SELECT id, name, is_active FROM services`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	var rows []serviceRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("service repository: list %w", err)
	}

	out := make([]*entity.Service, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.Service{ID: row.ID, Name: row.Name, IsActive: row.IsActive})
	}
	return out, nil
}

func (r *ServiceRepository) Create(ctx context.Context, svc *entity.Service) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO services (id, name, is_active) VALUES ($1, $2, $3)`,
		svc.ID, svc.Name, svc.IsActive)
	if err != nil {
		return fmt.Errorf("service repository: create %w", err)
	}
	return nil
}
