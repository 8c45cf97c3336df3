package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// GlobalSettings - единственная запись с комиссиями по умолчанию.
type GlobalSettings struct {
	ID                              int64
	CommissionType                  valueobject.CommissionType
	CommissionValue                 decimal.Decimal
	IsCommissionEnabled             bool
	CollaboratorCommissionType      valueobject.CommissionType
	CollaboratorCommissionValue     decimal.Decimal
	IsCollaboratorCommissionEnabled bool
	UpdatedBy                       *uuid.UUID
	CreatedAt                       time.Time
	UpdatedAt                       time.Time
}

// DefaultGlobalSettings - настройки, создаваемые при первом обращении.
func DefaultGlobalSettings(now time.Time) *GlobalSettings {
	return &GlobalSettings{
		CommissionType:              valueobject.CommissionTypePercentage,
		CommissionValue:             decimal.Zero,
		CollaboratorCommissionType:  valueobject.CommissionTypePercentage,
		CollaboratorCommissionValue: decimal.Zero,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
}

func (s *GlobalSettings) Validate() error {
	if err := valueobject.ValidateCommission(s.CommissionType, s.CommissionValue); err != nil {
		return err
	}
	return valueobject.ValidateCommission(s.CollaboratorCommissionType, s.CollaboratorCommissionValue)
}

// ServiceCommissionOverride переопределяет комиссию исполнителя для услуги.
type ServiceCommissionOverride struct {
	ServiceID       uuid.UUID
	CommissionType  valueobject.CommissionType
	CommissionValue decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *ServiceCommissionOverride) Validate() error {
	return valueobject.ValidateCommission(o.CommissionType, o.CommissionValue)
}
