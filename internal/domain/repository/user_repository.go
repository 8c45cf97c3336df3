package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	ListActiveAdmins(ctx context.Context) ([]*entity.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Service, error)
	Create(ctx context.Context, svc *entity.Service) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]*entity.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	MarkEmailSent(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}
