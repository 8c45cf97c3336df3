package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	c := *n
	r.s.notifications[n.ID] = &c
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, apperror.ErrNotificationNotFound
	}
	c := *n
	return &c, nil
}

func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*entity.Notification, 0)
	for _, n := range r.s.notifications {
		if n.RecipientID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		c := *n
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	if offset >= len(result) {
		return []*entity.Notification{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(n *entity.Notification) { n.IsRead = true })
}

func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(n *entity.Notification) { n.IsEmailSent = true })
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, n := range r.s.notifications {
		if n.RecipientID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, n := range r.s.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) update(id uuid.UUID, fn func(*entity.Notification)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return apperror.ErrNotificationNotFound
	}
	fn(n)
	return nil
}
