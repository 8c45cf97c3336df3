package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// Livrable - результат работы исполнителя по заказу.
type Livrable struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	Name              string
	Description       string
	FilePath          *string
	IsReviewedByAdmin bool
	IsAccepted        bool
	RejectionReason   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewLivrable(orderID uuid.UUID, name, description string, filePath *string, now time.Time) (*Livrable, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("название результата обязательно")
	}
	if len(name) > 200 {
		return nil, apperror.Validation("название результата не должно превышать 200 символов")
	}

	return &Livrable{
		ID:          uuid.New(),
		OrderID:     orderID,
		Name:        name,
		Description: description,
		FilePath:    filePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
