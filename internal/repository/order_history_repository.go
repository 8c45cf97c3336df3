package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// HistoryRepository читает журнал статусов. Запись выполняет OrderRepository.
type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.StatusHistory, error) {
	var rows []historyRow
	query := `
		SELECT id, order_id, status, actor_id, notes, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, orderID); err != nil {
		return nil, fmt.Errorf("history repository: list by order %w", err)
	}

	result := make([]*entity.StatusHistory, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, nil
}

type LivrableRepository struct {
	db *sqlx.DB
}

func NewLivrableRepository(db *sqlx.DB) *LivrableRepository {
	return &LivrableRepository{db: db}
}

func (r *LivrableRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Livrable, error) {
	var row livrableRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM livrables WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrLivrableNotFound
		}
		return nil, fmt.Errorf("livrable repository: get by id %w", err)
	}
	return row.toEntity(), nil
}

func (r *LivrableRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Livrable, error) {
	var rows []livrableRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM livrables WHERE order_id = $1 ORDER BY created_at`, orderID); err != nil {
		return nil, fmt.Errorf("livrable repository: list by order %w", err)
	}

	result := make([]*entity.Livrable, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, nil
}

// StatusRepository читает справочник статусов.
type StatusRepository struct {
	db *sqlx.DB
}

func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) GetByName(ctx context.Context, name valueobject.OrderStatus) (*entity.Status, error) {
	var row struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM statuses WHERE name = $1`, string(name)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.ErrCodeConfiguration, "статус "+string(name)+" не заведён в справочнике")
		}
		return nil, fmt.Errorf("status repository: get by name %w", err)
	}
	return &entity.Status{ID: row.ID, Name: valueobject.OrderStatus(row.Name)}, nil
}
