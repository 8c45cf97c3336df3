package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	domain "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/repository/common"
)

// OrderRepository хранит заказы, результаты работы и журнал статусов.
// Любое изменение заказа выполняется одной транзакцией с проверкой версии.
type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create выделяет номер заказа из счётчика года и сохраняет заказ с первой записью журнала.
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order, history *entity.StatusHistory) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		year := order.CreatedAt.Year()
		var seq int64
		if err := tx.GetContext(ctx, &seq, `
			INSERT INTO order_sequences (year, last_value) VALUES ($1, 1)
			ON CONFLICT (year) DO UPDATE SET last_value = order_sequences.last_value + 1
			RETURNING last_value
		`, year); err != nil {
			return fmt.Errorf("order repository: next number %w", err)
		}
		order.OrderNumber = entity.FormatOrderNumber(year, seq)
		order.Version = 1

		query := `INSERT INTO orders (` + orderColumns + `) VALUES (
			:id, :order_number, :client_id, :service_id, :collaborator_id, :status, :deadline_at,
			:total_price, :advance_payment, :discount, :quotation, :comment,
			:commission_type, :commission_value, :commission_amount, :commission_explicit,
			:collaborator_commission_type, :collaborator_commission_value, :collaborator_commission_amount,
			:commission_finalized_at, :is_blacklisted, :blacklist_reason, :completed_at, :version, :created_at, :updated_at
		)`
		if _, err := tx.NamedExecContext(ctx, query, newOrderRow(order)); err != nil {
			return orderWriteError("create", err)
		}

		if history != nil {
			if err := insertHistory(ctx, tx, history); err != nil {
				return err
			}
		}
		return nil
	})
}

// Save применяет изменение, только если версия в базе совпадает с ожидаемой.
func (r *OrderRepository) Save(ctx context.Context, change domain.OrderChange) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		row := newOrderRow(change.Order)
		result, err := tx.ExecContext(ctx, `
			UPDATE orders SET
				collaborator_id = $3, status = $4, deadline_at = $5,
				total_price = $6, advance_payment = $7, discount = $8, quotation = $9, comment = $10,
				commission_type = $11, commission_value = $12, commission_amount = $13, commission_explicit = $14,
				collaborator_commission_type = $15, collaborator_commission_value = $16, collaborator_commission_amount = $17,
				commission_finalized_at = $18, is_blacklisted = $19, blacklist_reason = $20, completed_at = $21,
				updated_at = $22, version = version + 1
			WHERE id = $1 AND version = $2
		`,
			row.ID, change.ExpectedVersion,
			row.CollaboratorID, row.Status, row.DeadlineAt,
			row.TotalPrice, row.AdvancePayment, row.Discount, row.Quotation, row.Comment,
			row.CommissionType, row.CommissionValue, row.CommissionAmount, row.CommissionExplicit,
			row.CollaboratorCommissionType, row.CollaboratorCommissionValue, row.CollaboratorCommissionAmount,
			row.CommissionFinalizedAt, row.IsBlacklisted, row.BlacklistReason, row.CompletedAt,
			row.UpdatedAt,
		)
		if err != nil {
			return orderWriteError("save", err)
		}
		if err := common.ExpectAffected(result, apperror.ErrConcurrentModification); err != nil {
			if !errors.Is(err, apperror.ErrConcurrentModification) {
				return fmt.Errorf("order repository: save %w", err)
			}
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, row.ID); err != nil {
				return fmt.Errorf("order repository: check exists %w", err)
			}
			if !exists {
				return apperror.ErrOrderNotFound
			}
			return apperror.ErrConcurrentModification
		}

		if l := change.NewLivrable; l != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO livrables (id, order_id, name, description, file_path, is_reviewed_by_admin, is_accepted, rejection_reason, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, l.ID, l.OrderID, l.Name, l.Description, nullString(l.FilePath), l.IsReviewedByAdmin, l.IsAccepted, l.RejectionReason, l.CreatedAt, l.UpdatedAt); err != nil {
				return fmt.Errorf("order repository: insert livrable %w", err)
			}
		}
		if l := change.UpdatedLivrable; l != nil {
			result, err := tx.ExecContext(ctx, `
				UPDATE livrables SET is_reviewed_by_admin = $2, is_accepted = $3, rejection_reason = $4, updated_at = $5
				WHERE id = $1
			`, l.ID, l.IsReviewedByAdmin, l.IsAccepted, l.RejectionReason, l.UpdatedAt)
			if err != nil {
				return fmt.Errorf("order repository: update livrable %w", err)
			}
			if err := common.ExpectAffected(result, apperror.ErrLivrableNotFound); err != nil {
				return err
			}
		}
		if change.History != nil {
			if err := insertHistory(ctx, tx, change.History); err != nil {
				return err
			}
		}

		change.Order.Version = change.ExpectedVersion + 1
		return nil
	})
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, h *entity.StatusHistory) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, actor_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, h.ID, h.OrderID, string(h.Status), h.ActorID, h.Notes, h.CreatedAt); err != nil {
		return orderWriteError("insert history", err)
	}
	return nil
}

// orderWriteError переводит ссылку на незаведённый статус в ошибку конфигурации.
func orderWriteError(op string, err error) error {
	if common.IsForeignKeyViolation(err, "orders_status_fkey") ||
		common.IsForeignKeyViolation(err, "order_status_history_status_fkey") {
		return apperror.Wrap(err, apperror.ErrCodeConfiguration, "статус заказа не заведён в справочнике")
	}
	return fmt.Errorf("order repository: %s %w", op, err)
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}
	return row.toEntity(), nil
}

// GetWithDetails загружает заказ и связанные записи отдельными запросами без N+1.
func (r *OrderRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := []uuid.UUID{order.ClientID}
	if order.CollaboratorID != nil {
		ids = append(ids, *order.CollaboratorID)
	}
	query, args, err := sqlx.In(`SELECT * FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("order repository: build users query %w", err)
	}
	var users []userRow
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("order repository: get users %w", err)
	}
	for _, u := range users {
		switch {
		case u.ID == order.ClientID:
			order.Client = u.toEntity()
		case order.IsAssignedTo(u.ID):
			order.Collaborator = u.toEntity()
		}
	}

	var svc serviceRow
	if err := r.db.GetContext(ctx, &svc, `SELECT id, name, is_active FROM services WHERE id = $1`, order.ServiceID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order repository: get service %w", err)
		}
	} else {
		order.Service = &entity.Service{ID: svc.ID, Name: svc.Name, IsActive: svc.IsActive}
	}

	livrables, err := NewLivrableRepository(r.db).ListByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Livrables = livrables
	return order, nil
}

func (r *OrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Order, error) {
	return r.selectOrders(ctx, "list by client", `WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

func (r *OrderRepository) ListByCollaborator(ctx context.Context, collaboratorID uuid.UUID) ([]*entity.Order, error) {
	return r.selectOrders(ctx, "list by collaborator", `WHERE collaborator_id = $1 ORDER BY created_at DESC`, collaboratorID)
}

// List возвращает страницу заказов и общее число подходящих под фильтр.
func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]*entity.Order, int, error) {
	var conditions []string
	var args []interface{}
	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.ClientID != nil {
		add("client_id = $%d", *f.ClientID)
	}
	if f.CollaboratorID != nil {
		add("collaborator_id = $%d", *f.CollaboratorID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("order repository: count %w", err)
	}

	tail := where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		tail += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		tail += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	orders, err := r.selectOrders(ctx, "list", tail, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) ListDeadlineBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error) {
	return r.selectOrders(ctx, "list deadline", `
		WHERE status NOT IN ('completed', 'cancelled') AND deadline_at >= $1 AND deadline_at < $2
		ORDER BY deadline_at
	`, from, to)
}

func (r *OrderRepository) ListWithOutstandingPayment(ctx context.Context) ([]*entity.Order, error) {
	return r.selectOrders(ctx, "list outstanding", `
		WHERE status <> 'cancelled' AND total_price > advance_payment
		ORDER BY created_at DESC
	`)
}

func (r *OrderRepository) selectOrders(ctx context.Context, op, tail string, args ...interface{}) ([]*entity.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+orderColumns+` FROM orders `+tail, args...); err != nil {
		return nil, fmt.Errorf("order repository: %s %w", op, err)
	}
	orders := make([]*entity.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toEntity())
	}
	return orders, nil
}
