package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Role         valueobject.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == valueobject.RoleAdmin
}

// Service - услуга каталога, на которую оформляется заказ.
type Service struct {
	ID       uuid.UUID
	Name     string
	IsActive bool
}
