package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// Денежные поля принимаются числом или строкой и отдаются строкой.

type CreateOrderRequest struct {
	ClientID        string           `json:"client_id"`
	ServiceID       string           `json:"service_id" binding:"required"`
	CollaboratorID  *string          `json:"collaborator_id"`
	DeadlineAt      string           `json:"deadline_at" binding:"required"`
	TotalPrice      decimal.Decimal  `json:"total_price"`
	AdvancePayment  decimal.Decimal  `json:"advance_payment"`
	Discount        decimal.Decimal  `json:"discount"`
	Quotation       string           `json:"quotation"`
	Comment         string           `json:"comment"`
	CommissionType  string           `json:"commission_type"`
	CommissionValue *decimal.Decimal `json:"commission_value"`
}

// PublicOrderRequest - заявка из публичной формы с уже согласованной котировкой.
type PublicOrderRequest struct {
	FullName   string          `json:"full_name"`
	Email      string          `json:"email" binding:"required"`
	Phone      string          `json:"phone" binding:"required"`
	ServiceID  string          `json:"service_id" binding:"required"`
	DeadlineAt string          `json:"deadline_at" binding:"required"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Quotation  string          `json:"quotation" binding:"required"`
	Comment    string          `json:"comment"`
}

type UpdateOrderRequest struct {
	TotalPrice      *decimal.Decimal  `json:"total_price"`
	AdvancePayment  *decimal.Decimal  `json:"advance_payment"`
	Discount        *decimal.Decimal  `json:"discount"`
	DeadlineAt      *string           `json:"deadline_at"`
	Quotation       *string           `json:"quotation"`
	Comment         *string           `json:"comment"`
	CommissionType  string            `json:"commission_type"`
	CommissionValue *decimal.Decimal  `json:"commission_value"`
	Blacklist       *BlacklistRequest `json:"blacklist"`
}

type BlacklistRequest struct {
	Flag   bool   `json:"flag"`
	Reason string `json:"reason"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AssignCollaboratorRequest - null снимает исполнителя.
type AssignCollaboratorRequest struct {
	CollaboratorID *string `json:"collaborator_id"`
}

type CommissionResponse struct {
	Type   string          `json:"type,omitempty"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Role     string    `json:"role"`
}

type ServiceSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

type OrderResponse struct {
	ID                     uuid.UUID          `json:"id"`
	OrderNumber            string             `json:"order_number"`
	ClientID               uuid.UUID          `json:"client_id"`
	ServiceID              uuid.UUID          `json:"service_id"`
	CollaboratorID         *uuid.UUID         `json:"collaborator_id"`
	Status                 string             `json:"status"`
	DeadlineAt             time.Time          `json:"deadline_at"`
	TotalPrice             decimal.Decimal    `json:"total_price"`
	AdvancePayment         decimal.Decimal    `json:"advance_payment"`
	Discount               decimal.Decimal    `json:"discount"`
	RemainingPayment       decimal.Decimal    `json:"remaining_payment"`
	Quotation              string             `json:"quotation,omitempty"`
	Comment                string             `json:"comment,omitempty"`
	Commission             CommissionResponse `json:"commission"`
	CollaboratorCommission CommissionResponse `json:"collaborator_commission"`
	CommissionFinalizedAt  *time.Time         `json:"commission_finalized_at,omitempty"`
	IsBlacklisted          bool               `json:"is_blacklisted"`
	BlacklistReason        string             `json:"blacklist_reason,omitempty"`
	CompletedAt            *time.Time         `json:"completed_at,omitempty"`
	Version                int64              `json:"version"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`

	Client       *UserSummary       `json:"client,omitempty"`
	Collaborator *UserSummary       `json:"collaborator,omitempty"`
	Service      *ServiceSummary    `json:"service,omitempty"`
	Livrables    []LivrableResponse `json:"livrables,omitempty"`
}

type LivrableResponse struct {
	ID                uuid.UUID `json:"id"`
	OrderID           uuid.UUID `json:"order_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	FilePath          *string   `json:"file_path,omitempty"`
	IsReviewedByAdmin bool      `json:"is_reviewed_by_admin"`
	IsAccepted        bool      `json:"is_accepted"`
	RejectionReason   string    `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type HistoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	Status    string     `json:"status"`
	ActorID   *uuid.UUID `json:"actor_id"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SubmitLivrableResponse - созданный результат и заказ после перехода.
type SubmitLivrableResponse struct {
	Livrable LivrableResponse `json:"livrable"`
	Order    OrderResponse    `json:"order"`
}

// ParseDeadline разбирает срок в формате RFC3339 или YYYY-MM-DD.
func ParseDeadline(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperror.Validation("некорректный формат срока, ожидается RFC3339 или YYYY-MM-DD")
}

// ParseOptionalUUID разбирает необязательный идентификатор. Пустая строка - nil.
func ParseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperror.Validation("некорректный идентификатор")
	}
	return &id, nil
}

// ParseCommissionType разбирает тип комиссии. Пустая строка допустима.
func ParseCommissionType(raw string) (valueobject.CommissionType, error) {
	if raw == "" {
		return "", nil
	}
	return valueobject.NewCommissionType(raw)
}

func toCommission(t entity.CommissionTerms) CommissionResponse {
	return CommissionResponse{
		Type:   string(t.Type),
		Value:  t.Value,
		Amount: valueobject.RoundMoney(t.Amount),
	}
}

func ToUserSummary(u *entity.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     string(u.Role),
	}
}

func ToServiceSummary(s *entity.Service) *ServiceSummary {
	if s == nil {
		return nil
	}
	return &ServiceSummary{ID: s.ID, Name: s.Name, IsActive: s.IsActive}
}

func ToOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:                     o.ID,
		OrderNumber:            o.OrderNumber,
		ClientID:               o.ClientID,
		ServiceID:              o.ServiceID,
		CollaboratorID:         o.CollaboratorID,
		Status:                 string(o.Status),
		DeadlineAt:             o.DeadlineAt,
		TotalPrice:             valueobject.RoundMoney(o.TotalPrice),
		AdvancePayment:         valueobject.RoundMoney(o.AdvancePayment),
		Discount:               valueobject.RoundMoney(o.Discount),
		RemainingPayment:       valueobject.RoundMoney(o.RemainingPayment()),
		Quotation:              o.Quotation,
		Comment:                o.Comment,
		Commission:             toCommission(o.Commission),
		CollaboratorCommission: toCommission(o.CollaboratorCommission),
		CommissionFinalizedAt:  o.CommissionFinalizedAt,
		IsBlacklisted:          o.IsBlacklisted,
		BlacklistReason:        o.BlacklistReason,
		CompletedAt:            o.CompletedAt,
		Version:                o.Version,
		CreatedAt:              o.CreatedAt,
		UpdatedAt:              o.UpdatedAt,
		Client:                 ToUserSummary(o.Client),
		Collaborator:           ToUserSummary(o.Collaborator),
		Service:                ToServiceSummary(o.Service),
	}
	if len(o.Livrables) > 0 {
		resp.Livrables = make([]LivrableResponse, 0, len(o.Livrables))
		for _, l := range o.Livrables {
			resp.Livrables = append(resp.Livrables, ToLivrableResponse(l))
		}
	}
	return resp
}

func ToOrderResponses(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderResponse(o))
	}
	return out
}

func ToLivrableResponse(l *entity.Livrable) LivrableResponse {
	return LivrableResponse{
		ID:                l.ID,
		OrderID:           l.OrderID,
		Name:              l.Name,
		Description:       l.Description,
		FilePath:          l.FilePath,
		IsReviewedByAdmin: l.IsReviewedByAdmin,
		IsAccepted:        l.IsAccepted,
		RejectionReason:   l.RejectionReason,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func ToHistoryResponses(entries []*entity.StatusHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryResponse{
			ID:        h.ID,
			Status:    string(h.Status),
			ActorID:   h.ActorID,
			Notes:     h.Notes,
			CreatedAt: h.CreatedAt,
		})
	}
	return out
}
