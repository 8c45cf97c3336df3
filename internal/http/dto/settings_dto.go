package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
)

// SettingsRequest - создание или частичное изменение глобальных настроек.
type SettingsRequest struct {
	CommissionType                  *string          `json:"commission_type"`
	CommissionValue                 *decimal.Decimal `json:"commission_value"`
	IsCommissionEnabled             *bool            `json:"is_commission_enabled"`
	CollaboratorCommissionType      *string          `json:"collaborator_commission_type"`
	CollaboratorCommissionValue     *decimal.Decimal `json:"collaborator_commission_value"`
	IsCollaboratorCommissionEnabled *bool            `json:"is_collaborator_commission_enabled"`
}

func (r SettingsRequest) ToInput() (service.SettingsInput, error) {
	in := service.SettingsInput{
		CommissionValue:                 r.CommissionValue,
		IsCommissionEnabled:             r.IsCommissionEnabled,
		CollaboratorCommissionValue:     r.CollaboratorCommissionValue,
		IsCollaboratorCommissionEnabled: r.IsCollaboratorCommissionEnabled,
	}
	if r.CommissionType != nil {
		t, err := valueobject.NewCommissionType(*r.CommissionType)
		if err != nil {
			return in, err
		}
		in.CommissionType = &t
	}
	if r.CollaboratorCommissionType != nil {
		t, err := valueobject.NewCommissionType(*r.CollaboratorCommissionType)
		if err != nil {
			return in, err
		}
		in.CollaboratorCommissionType = &t
	}
	return in, nil
}

type SettingsResponse struct {
	CommissionType                  string          `json:"commission_type"`
	CommissionValue                 decimal.Decimal `json:"commission_value"`
	IsCommissionEnabled             bool            `json:"is_commission_enabled"`
	CollaboratorCommissionType      string          `json:"collaborator_commission_type"`
	CollaboratorCommissionValue     decimal.Decimal `json:"collaborator_commission_value"`
	IsCollaboratorCommissionEnabled bool            `json:"is_collaborator_commission_enabled"`
	UpdatedBy                       *uuid.UUID      `json:"updated_by,omitempty"`
	UpdatedAt                       time.Time       `json:"updated_at"`
}

func ToSettingsResponse(s *entity.GlobalSettings) SettingsResponse {
	return SettingsResponse{
		CommissionType:                  string(s.CommissionType),
		CommissionValue:                 s.CommissionValue,
		IsCommissionEnabled:             s.IsCommissionEnabled,
		CollaboratorCommissionType:      string(s.CollaboratorCommissionType),
		CollaboratorCommissionValue:     s.CollaboratorCommissionValue,
		IsCollaboratorCommissionEnabled: s.IsCollaboratorCommissionEnabled,
		UpdatedBy:                       s.UpdatedBy,
		UpdatedAt:                       s.UpdatedAt,
	}
}

type ServiceCommissionRequest struct {
	CommissionType  string          `json:"commission_type" binding:"required"`
	CommissionValue decimal.Decimal `json:"commission_value"`
	IsActive        *bool           `json:"is_active"`
}

func (r ServiceCommissionRequest) ToInput() (service.ServiceOverrideInput, error) {
	t, err := valueobject.NewCommissionType(r.CommissionType)
	if err != nil {
		return service.ServiceOverrideInput{}, err
	}
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return service.ServiceOverrideInput{CommissionType: t, CommissionValue: r.CommissionValue, IsActive: active}, nil
}

type ServiceCommissionResponse struct {
	ServiceID       uuid.UUID       `json:"service_id"`
	CommissionType  string          `json:"commission_type"`
	CommissionValue decimal.Decimal `json:"commission_value"`
	IsActive        bool            `json:"is_active"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func ToServiceCommissionResponse(o *entity.ServiceCommissionOverride) ServiceCommissionResponse {
	return ServiceCommissionResponse{
		ServiceID:       o.ServiceID,
		CommissionType:  string(o.CommissionType),
		CommissionValue: o.CommissionValue,
		IsActive:        o.IsActive,
		UpdatedAt:       o.UpdatedAt,
	}
}
