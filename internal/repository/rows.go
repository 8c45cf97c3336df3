package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// Строки таблиц. Доменные сущности не знают о db тегах.

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		Role:         valueobject.Role(r.Role),
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type serviceRow struct {
	ID       uuid.UUID `db:"id"`
	Name     string    `db:"name"`
	IsActive bool      `db:"is_active"`
}

const orderColumns = `id, order_number, client_id, service_id, collaborator_id, status, deadline_at,
	total_price, advance_payment, discount, quotation, comment,
	commission_type, commission_value, commission_amount, commission_explicit,
	collaborator_commission_type, collaborator_commission_value, collaborator_commission_amount,
	commission_finalized_at, is_blacklisted, blacklist_reason, completed_at, version, created_at, updated_at`

type orderRow struct {
	ID                           uuid.UUID       `db:"id"`
	OrderNumber                  string          `db:"order_number"`
	ClientID                     uuid.UUID       `db:"client_id"`
	ServiceID                    uuid.UUID       `db:"service_id"`
	CollaboratorID               *uuid.UUID      `db:"collaborator_id"`
	Status                       string          `db:"status"`
	DeadlineAt                   time.Time       `db:"deadline_at"`
	TotalPrice                   decimal.Decimal `db:"total_price"`
	AdvancePayment               decimal.Decimal `db:"advance_payment"`
	Discount                     decimal.Decimal `db:"discount"`
	Quotation                    string          `db:"quotation"`
	Comment                      string          `db:"comment"`
	CommissionType               string          `db:"commission_type"`
	CommissionValue              decimal.Decimal `db:"commission_value"`
	CommissionAmount             decimal.Decimal `db:"commission_amount"`
	CommissionExplicit           bool            `db:"commission_explicit"`
	CollaboratorCommissionType   string          `db:"collaborator_commission_type"`
	CollaboratorCommissionValue  decimal.Decimal `db:"collaborator_commission_value"`
	CollaboratorCommissionAmount decimal.Decimal `db:"collaborator_commission_amount"`
	CommissionFinalizedAt        *time.Time      `db:"commission_finalized_at"`
	IsBlacklisted                bool            `db:"is_blacklisted"`
	BlacklistReason              string          `db:"blacklist_reason"`
	CompletedAt                  *time.Time      `db:"completed_at"`
	Version                      int64           `db:"version"`
	CreatedAt                    time.Time       `db:"created_at"`
	UpdatedAt                    time.Time       `db:"updated_at"`
}

func newOrderRow(o *entity.Order) orderRow {
	return orderRow{
		ID:                           o.ID,
		OrderNumber:                  o.OrderNumber,
		ClientID:                     o.ClientID,
		ServiceID:                    o.ServiceID,
		CollaboratorID:               o.CollaboratorID,
		Status:                       string(o.Status),
		DeadlineAt:                   o.DeadlineAt,
		TotalPrice:                   o.TotalPrice,
		AdvancePayment:               o.AdvancePayment,
		Discount:                     o.Discount,
		Quotation:                    o.Quotation,
		Comment:                      o.Comment,
		CommissionType:               string(o.Commission.Type),
		CommissionValue:              o.Commission.Value,
		CommissionAmount:             o.Commission.Amount,
		CommissionExplicit:           o.CommissionExplicit,
		CollaboratorCommissionType:   string(o.CollaboratorCommission.Type),
		CollaboratorCommissionValue:  o.CollaboratorCommission.Value,
		CollaboratorCommissionAmount: o.CollaboratorCommission.Amount,
		CommissionFinalizedAt:        o.CommissionFinalizedAt,
		IsBlacklisted:                o.IsBlacklisted,
		BlacklistReason:              o.BlacklistReason,
		CompletedAt:                  o.CompletedAt,
		Version:                      o.Version,
		CreatedAt:                    o.CreatedAt,
		UpdatedAt:                    o.UpdatedAt,
	}
}

func (r orderRow) toEntity() *entity.Order {
	return &entity.Order{
		ID:             r.ID,
		OrderNumber:    r.OrderNumber,
		ClientID:       r.ClientID,
		ServiceID:      r.ServiceID,
		CollaboratorID: r.CollaboratorID,
		Status:         valueobject.OrderStatus(r.Status),
		DeadlineAt:     r.DeadlineAt,
		TotalPrice:     r.TotalPrice,
		AdvancePayment: r.AdvancePayment,
		Discount:       r.Discount,
		Quotation:      r.Quotation,
		Comment:        r.Comment,
		Commission: entity.CommissionTerms{
			Type:   valueobject.CommissionType(r.CommissionType),
			Value:  r.CommissionValue,
			Amount: r.CommissionAmount,
		},
		CommissionExplicit: r.CommissionExplicit,
		CollaboratorCommission: entity.CommissionTerms{
			Type:   valueobject.CommissionType(r.CollaboratorCommissionType),
			Value:  r.CollaboratorCommissionValue,
			Amount: r.CollaboratorCommissionAmount,
		},
		CommissionFinalizedAt: r.CommissionFinalizedAt,
		IsBlacklisted:         r.IsBlacklisted,
		BlacklistReason:       r.BlacklistReason,
		CompletedAt:           r.CompletedAt,
		Version:               r.Version,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

type livrableRow struct {
	ID                uuid.UUID      `db:"id"`
	OrderID           uuid.UUID      `db:"order_id"`
	Name              string         `db:"name"`
	Description       string         `db:"description"`
	FilePath          sql.NullString `db:"file_path"`
	IsReviewedByAdmin bool           `db:"is_reviewed_by_admin"`
	IsAccepted        bool           `db:"is_accepted"`
	RejectionReason   string         `db:"rejection_reason"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r livrableRow) toEntity() *entity.Livrable {
	l := &entity.Livrable{
		ID:                r.ID,
		OrderID:           r.OrderID,
		Name:              r.Name,
		Description:       r.Description,
		IsReviewedByAdmin: r.IsReviewedByAdmin,
		IsAccepted:        r.IsAccepted,
		RejectionReason:   r.RejectionReason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.FilePath.Valid {
		path := r.FilePath.String
		l.FilePath = &path
	}
	return l
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type historyRow struct {
	ID        uuid.UUID  `db:"id"`
	OrderID   uuid.UUID  `db:"order_id"`
	Status    string     `db:"status"`
	ActorID   *uuid.UUID `db:"actor_id"`
	Notes     string     `db:"notes"`
	CreatedAt time.Time  `db:"created_at"`
}

func (r historyRow) toEntity() *entity.StatusHistory {
	return &entity.StatusHistory{
		ID:        r.ID,
		OrderID:   r.OrderID,
		Status:    valueobject.OrderStatus(r.Status),
		ActorID:   r.ActorID,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
	}
}

type notificationRow struct {
	ID          uuid.UUID  `db:"id"`
	RecipientID uuid.UUID  `db:"recipient_id"`
	Type        string     `db:"type"`
	Title       string     `db:"title"`
	Message     string     `db:"message"`
	Priority    string     `db:"priority"`
	IsRead      bool       `db:"is_read"`
	IsEmailSent bool       `db:"is_email_sent"`
	OrderID     *uuid.UUID `db:"order_id"`
	LivrableID  *uuid.UUID `db:"livrable_id"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r notificationRow) toEntity() *entity.Notification {
	return &entity.Notification{
		ID:          r.ID,
		RecipientID: r.RecipientID,
		Type:        valueobject.NotificationType(r.Type),
		Title:       r.Title,
		Message:     r.Message,
		Priority:    valueobject.NotificationPriority(r.Priority),
		IsRead:      r.IsRead,
		IsEmailSent: r.IsEmailSent,
		OrderID:     r.OrderID,
		LivrableID:  r.LivrableID,
		CreatedAt:   r.CreatedAt,
	}
}

type settingsRow struct {
	ID                              int64           `db:"id"`
	CommissionType                  string          `db:"commission_type"`
	CommissionValue                 decimal.Decimal `db:"commission_value"`
	IsCommissionEnabled             bool            `db:"is_commission_enabled"`
	CollaboratorCommissionType      string          `db:"collaborator_commission_type"`
	CollaboratorCommissionValue     decimal.Decimal `db:"collaborator_commission_value"`
	IsCollaboratorCommissionEnabled bool            `db:"is_collaborator_commission_enabled"`
	UpdatedBy                       *uuid.UUID      `db:"updated_by"`
	CreatedAt                       time.Time       `db:"created_at"`
	UpdatedAt                       time.Time       `db:"updated_at"`
}

func (r settingsRow) toEntity() *entity.GlobalSettings {
	return &entity.GlobalSettings{
		ID:                              r.ID,
		CommissionType:                  valueobject.CommissionType(r.CommissionType),
		CommissionValue:                 r.CommissionValue,
		IsCommissionEnabled:             r.IsCommissionEnabled,
		CollaboratorCommissionType:      valueobject.CommissionType(r.CollaboratorCommissionType),
		CollaboratorCommissionValue:     r.CollaboratorCommissionValue,
		IsCollaboratorCommissionEnabled: r.IsCollaboratorCommissionEnabled,
		UpdatedBy:                       r.UpdatedBy,
		CreatedAt:                       r.CreatedAt,
		UpdatedAt:                       r.UpdatedAt,
	}
}

type overrideRow struct {
	ServiceID       uuid.UUID       `db:"service_id"`
	CommissionType  string          `db:"commission_type"`
	CommissionValue decimal.Decimal `db:"commission_value"`
	IsActive        bool            `db:"is_active"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r overrideRow) toEntity() *entity.ServiceCommissionOverride {
	return &entity.ServiceCommissionOverride{
		ServiceID:       r.ServiceID,
		CommissionType:  valueobject.CommissionType(r.CommissionType),
		CommissionValue: r.CommissionValue,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
