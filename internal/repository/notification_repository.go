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

// NotificationRepository отвечает за работу с уведомлениями.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт экземпляр репозитория.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create создаёт новое уведомление.
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	query := `
		INSERT INTO notifications (id, recipient_id, type, title, message, priority, is_read, is_email_sent, order_id, livrable_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := r.db.ExecContext(ctx, query,
		n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, string(n.Priority),
		n.IsRead, n.IsEmailSent, n.OrderID, n.LivrableID, n.CreatedAt,
	); err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// GetByID возвращает уведомление по идентификатору.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	row, err := common.GetByField[notificationRow](ctx, r.db, "notifications", "id", id, apperror.ErrNotificationNotFound)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// List возвращает список уведомлений пользователя с пагинацией.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, error) {
	query := `SELECT * FROM notifications WHERE recipient_id = $1`
	args := []interface{}{userID}
	argIndex := 2

	if unreadOnly {
		query += " AND is_read = FALSE"
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}

	result := make([]*entity.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, nil
}

// MarkAsRead отмечает уведомление как прочитанное.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark as read %w", err)
	}
	return common.ExpectAffected(result, apperror.ErrNotificationNotFound)
}

// MarkEmailSent фиксирует отправку письма, чтобы повтор задачи не дублировал его.
func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_email_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark email sent %w", err)
	}
	return common.ExpectAffected(result, apperror.ErrNotificationNotFound)
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("notification repository: mark all as read %w", err)
	}
	return nil
}

// CountUnread возвращает количество непрочитанных уведомлений пользователя.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, userID); err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return count, nil
}
