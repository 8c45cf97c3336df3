package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// CommissionTerms - правило комиссии, закреплённое за заказом, и рассчитанная сумма.
type CommissionTerms struct {
	Type   valueobject.CommissionType
	Value  decimal.Decimal
	Amount decimal.Decimal
}

// IsSet сообщает, задано ли правило.
func (t CommissionTerms) IsSet() bool {
	return t.Type != ""
}

type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	ClientID       uuid.UUID
	ServiceID      uuid.UUID
	CollaboratorID *uuid.UUID
	Status         valueobject.OrderStatus
	DeadlineAt     time.Time
	TotalPrice     decimal.Decimal
	AdvancePayment decimal.Decimal
	Discount       decimal.Decimal
	Quotation      string
	Comment        string

	// Commission - комиссия платформы. CommissionExplicit означает, что
	// правило задано на уровне заказа и имеет приоритет над глобальными настройками.
	Commission             CommissionTerms
	CommissionExplicit     bool
	CollaboratorCommission CommissionTerms
	CommissionFinalizedAt  *time.Time

	IsBlacklisted   bool
	BlacklistReason string

	CompletedAt *time.Time
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Заполняются при загрузке с деталями.
	Client       *User
	Collaborator *User
	Service      *Service
	Livrables    []*Livrable
}

// NewOrderParams - входные данные для создания заказа.
type NewOrderParams struct {
	ClientID        uuid.UUID
	ServiceID       uuid.UUID
	CollaboratorID  *uuid.UUID
	DeadlineAt      time.Time
	TotalPrice      decimal.Decimal
	AdvancePayment  decimal.Decimal
	Discount        decimal.Decimal
	Quotation       string
	Comment         string
	CommissionType  valueobject.CommissionType
	CommissionValue *decimal.Decimal
	// PreValidated - котировка уже подтверждена (публичный канал приёма заказов).
	PreValidated bool
	Now          time.Time
}

// FormatOrderNumber формирует номер заказа ORD-<год>-<порядковый номер>.
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%04d", year, seq)
}

func NewOrder(p NewOrderParams) (*Order, error) {
	if p.ClientID == uuid.Nil {
		return nil, apperror.Validation("клиент заказа обязателен")
	}
	if p.ServiceID == uuid.Nil {
		return nil, apperror.Validation("услуга заказа обязательна")
	}
	if p.DeadlineAt.IsZero() {
		return nil, apperror.Validation("срок выполнения заказа обязателен")
	}
	if err := validateFinancials(p.TotalPrice, p.AdvancePayment, p.Discount); err != nil {
		return nil, err
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	status := valueobject.OrderStatusPending
	if p.PreValidated {
		status = valueobject.OrderStatusConfirmed
	}

	o := &Order{
		ID:             uuid.New(),
		ClientID:       p.ClientID,
		ServiceID:      p.ServiceID,
		CollaboratorID: p.CollaboratorID,
		Status:         status,
		DeadlineAt:     p.DeadlineAt,
		TotalPrice:     valueobject.RoundMoney(p.TotalPrice),
		AdvancePayment: valueobject.RoundMoney(p.AdvancePayment),
		Discount:       valueobject.RoundMoney(p.Discount),
		Quotation:      p.Quotation,
		Comment:        p.Comment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if p.CommissionValue != nil {
		if err := o.SetExplicitCommission(p.CommissionType, *p.CommissionValue); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// CreationEvents возвращает события создания заказа.
func (o *Order) CreationEvents(actor Actor) []event.Event {
	base := event.NewBase(o.ID, actor.Ref(), o.CreatedAt)
	events := []event.Event{event.OrderCreated{Base: base, Status: o.Status}}
	if o.CollaboratorID != nil {
		events = append(events, event.CollaboratorAssigned{Base: base, New: o.CollaboratorID})
	}
	return events
}

func validateFinancials(total, advance, discount decimal.Decimal) error {
	if !total.IsPositive() {
		return apperror.Validation("стоимость заказа должна быть больше нуля")
	}
	if advance.IsNegative() {
		return apperror.Validation("аванс не может быть отрицательным")
	}
	if advance.GreaterThan(total) {
		return apperror.Validation("аванс не может превышать стоимость заказа")
	}
	if discount.IsNegative() {
		return apperror.Validation("скидка не может быть отрицательной")
	}
	return nil
}

// RemainingPayment - остаток к оплате, всегда неотрицательный.
func (o *Order) RemainingPayment() decimal.Decimal {
	return o.TotalPrice.Sub(o.AdvancePayment)
}

func (o *Order) IsFullyPaid() bool {
	return o.AdvancePayment.GreaterThanOrEqual(o.TotalPrice)
}

func (o *Order) IsAssignedTo(userID uuid.UUID) bool {
	return o.CollaboratorID != nil && *o.CollaboratorID == userID
}

func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.ClientID == userID
}

// IsReviewEligible - клиент может оставить отзыв только по завершённому заказу.
func (o *Order) IsReviewEligible() bool {
	return o.Status == valueobject.OrderStatusCompleted
}

// CanBeViewedBy проверяет право чтения заказа.
func (o *Order) CanBeViewedBy(actor Actor) bool {
	switch {
	case actor.IsSystem(), actor.IsAdmin():
		return true
	case actor.IsCollaborator():
		return o.IsAssignedTo(actor.UserID)
	case actor.IsClient():
		return o.IsOwnedBy(actor.UserID)
	}
	return false
}

// FinancialsPatch - изменения денежных полей. nil означает "не менять".
type FinancialsPatch struct {
	TotalPrice     *decimal.Decimal
	AdvancePayment *decimal.Decimal
	Discount       *decimal.Decimal
}

// UpdateFinancials проверяет итоговое состояние до изменения полей.
func (o *Order) UpdateFinancials(p FinancialsPatch, now time.Time) error {
	total, advance, discount := o.TotalPrice, o.AdvancePayment, o.Discount
	if p.TotalPrice != nil {
		total = valueobject.RoundMoney(*p.TotalPrice)
	}
	if p.AdvancePayment != nil {
		advance = valueobject.RoundMoney(*p.AdvancePayment)
	}
	if p.Discount != nil {
		discount = valueobject.RoundMoney(*p.Discount)
	}
	if err := validateFinancials(total, advance, discount); err != nil {
		return err
	}

	o.TotalPrice, o.AdvancePayment, o.Discount = total, advance, discount
	o.UpdatedAt = now
	return nil
}

// SetExplicitCommission закрепляет за заказом собственное правило комиссии платформы.
func (o *Order) SetExplicitCommission(t valueobject.CommissionType, value decimal.Decimal) error {
	if err := valueobject.ValidateCommission(t, value); err != nil {
		return err
	}
	o.Commission.Type = t
	o.Commission.Value = value
	o.CommissionExplicit = true
	return nil
}

// SetBlacklist помечает клиента заказа. Причина обязательна при установке флага.
func (o *Order) SetBlacklist(actor Actor, flag bool, reason string, now time.Time) ([]event.Event, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, apperror.New(apperror.ErrCodeUnauthorizedTransition, "только администратор может изменять чёрный список")
	}
	if !flag {
		o.IsBlacklisted = false
		o.BlacklistReason = ""
		o.UpdatedAt = now
		return nil, nil
	}
	if reason == "" {
		return nil, apperror.Validation("причина блокировки обязательна")
	}

	wasBlacklisted := o.IsBlacklisted
	o.IsBlacklisted = true
	o.BlacklistReason = reason
	o.UpdatedAt = now
	if wasBlacklisted {
		return nil, nil
	}

	return []event.Event{event.ClientBlacklisted{
		Base:     event.NewBase(o.ID, actor.Ref(), now),
		ClientID: o.ClientID,
		Reason:   reason,
	}}, nil
}

// authorizeStatusChange проверяет, что актор может перевести заказ в target.
func (o *Order) authorizeStatusChange(actor Actor, target valueobject.OrderStatus) error {
	switch {
	case actor.IsSystem(), actor.IsAdmin():
		return nil
	case actor.IsCollaborator():
		if !o.IsAssignedTo(actor.UserID) {
			return apperror.New(apperror.ErrCodeUnauthorizedTransition, "заказ назначен другому исполнителю")
		}
		return nil
	case actor.IsClient():
		if !o.IsOwnedBy(actor.UserID) {
			return apperror.New(apperror.ErrCodeUnauthorizedTransition, "заказ принадлежит другому клиенту")
		}
		cancellable := o.Status == valueobject.OrderStatusPending || o.Status == valueobject.OrderStatusConfirmed
		if target == valueobject.OrderStatusCancelled && cancellable {
			return nil
		}
		return apperror.New(apperror.ErrCodeUnauthorizedTransition, "клиент может только отменить заказ до начала работ")
	}
	return apperror.New(apperror.ErrCodeUnauthorizedTransition, "недостаточно прав для изменения статуса")
}

// ChangeStatus выполняет переход по таблице статусов. Для отмены notes - обязательная причина.
func (o *Order) ChangeStatus(actor Actor, target valueobject.OrderStatus, notes string, now time.Time) ([]event.Event, error) {
	if !target.IsValid() {
		return nil, apperror.Validation("некорректный статус заказа")
	}
	if err := o.authorizeStatusChange(actor, target); err != nil {
		return nil, err
	}
	if o.Status == target {
		return nil, apperror.Validation(fmt.Sprintf("заказ уже в статусе %s", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, apperror.Validation(fmt.Sprintf("переход %s -> %s недопустим", o.Status, target))
	}
	if target == valueobject.OrderStatusCancelled && notes == "" {
		return nil, apperror.Validation("причина отмены обязательна")
	}

	return o.moveTo(actor, target, notes, now), nil
}

// moveTo меняет статус без проверок и формирует события перехода.
func (o *Order) moveTo(actor Actor, target valueobject.OrderStatus, notes string, now time.Time) []event.Event {
	old := o.Status
	o.Status = target
	o.UpdatedAt = now

	base := event.NewBase(o.ID, actor.Ref(), now)
	events := []event.Event{event.StatusChanged{Base: base, Old: old, New: target, Notes: notes}}

	switch target {
	case valueobject.OrderStatusCompleted:
		completedAt := now
		o.CompletedAt = &completedAt
		events = append(events, event.OrderCompleted{Base: base})
	case valueobject.OrderStatusCancelled:
		events = append(events, event.OrderCancelled{Base: base, Previous: old, Reason: notes})
	}
	return events
}

// AssignCollaborator назначает или снимает исполнителя.
// Повторное назначение того же исполнителя не порождает событий.
func (o *Order) AssignCollaborator(actor Actor, collaboratorID *uuid.UUID, now time.Time) ([]event.Event, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, apperror.New(apperror.ErrCodeUnauthorizedTransition, "только администратор может назначать исполнителя")
	}
	if o.Status.IsTerminal() {
		return nil, apperror.Validation("нельзя изменить исполнителя закрытого заказа")
	}
	if sameCollaborator(o.CollaboratorID, collaboratorID) {
		return nil, nil
	}

	old := o.CollaboratorID
	o.CollaboratorID = collaboratorID
	o.UpdatedAt = now

	return []event.Event{event.CollaboratorAssigned{
		Base: event.NewBase(o.ID, actor.Ref(), now),
		Old:  old,
		New:  collaboratorID,
	}}, nil
}

func sameCollaborator(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FindLivrable ищет результат работы среди загруженных.
func (o *Order) FindLivrable(id uuid.UUID) (*Livrable, error) {
	for _, l := range o.Livrables {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, apperror.ErrLivrableNotFound
}

// AllLivrablesAccepted - есть хотя бы один результат и все приняты.
func (o *Order) AllLivrablesAccepted() bool {
	if len(o.Livrables) == 0 {
		return false
	}
	for _, l := range o.Livrables {
		if !l.IsAccepted {
			return false
		}
	}
	return true
}

// SubmitLivrable добавляет результат работы. Если заказ ещё не на проверке,
// он принудительно переводится в under_review.
func (o *Order) SubmitLivrable(actor Actor, name, description string, filePath *string, now time.Time) (*Livrable, []event.Event, error) {
	if !actor.IsAdmin() && !(actor.IsCollaborator() && o.IsAssignedTo(actor.UserID)) {
		return nil, nil, apperror.New(apperror.ErrCodeUnauthorizedTransition, "загружать результаты может только назначенный исполнитель")
	}
	if o.Status.IsTerminal() {
		return nil, nil, apperror.Validation("нельзя добавить результат к закрытому заказу")
	}

	l, err := NewLivrable(o.ID, name, description, filePath, now)
	if err != nil {
		return nil, nil, err
	}
	o.Livrables = append(o.Livrables, l)

	var events []event.Event
	if o.Status != valueobject.OrderStatusUnderReview {
		events = o.moveTo(actor, valueobject.OrderStatusUnderReview, fmt.Sprintf("Загружен результат «%s»", l.Name), now)
	}
	o.UpdatedAt = now

	events = append(events, event.DeliverableUploaded{
		Base:       event.NewBase(o.ID, actor.Ref(), now),
		LivrableID: l.ID,
		Title:      l.Name,
	})
	return l, events, nil
}

// ReviewLivrable отмечает результат как проверенный администратором.
func (o *Order) ReviewLivrable(actor Actor, livrableID uuid.UUID, now time.Time) (*Livrable, []event.Event, error) {
	if !actor.IsAdmin() {
		return nil, nil, apperror.New(apperror.ErrCodeUnauthorizedTransition, "проверять результаты может только администратор")
	}
	if o.Status.IsTerminal() {
		return nil, nil, apperror.Validation("заказ уже закрыт")
	}
	l, err := o.FindLivrable(livrableID)
	if err != nil {
		return nil, nil, err
	}
	if l.IsReviewedByAdmin {
		return l, nil, nil
	}

	l.IsReviewedByAdmin = true
	l.UpdatedAt = now
	return l, []event.Event{event.DeliverableReviewed{
		Base:       event.NewBase(o.ID, actor.Ref(), now),
		LivrableID: l.ID,
		Title:      l.Name,
	}}, nil
}

// AcceptLivrable принимает результат. Когда приняты все результаты заказа
// на проверке, заказ завершается.
func (o *Order) AcceptLivrable(actor Actor, livrableID uuid.UUID, now time.Time) (*Livrable, []event.Event, error) {
	if !actor.IsClient() || !o.IsOwnedBy(actor.UserID) {
		return nil, nil, apperror.New(apperror.ErrCodeUnauthorizedTransition, "принять результат может только клиент заказа")
	}
	if o.Status.IsTerminal() {
		return nil, nil, apperror.Validation("заказ уже закрыт")
	}
	l, err := o.FindLivrable(livrableID)
	if err != nil {
		return nil, nil, err
	}
	if !l.IsReviewedByAdmin {
		return nil, nil, apperror.Validation("результат ещё не проверен администратором")
	}

	l.IsAccepted = true
	l.RejectionReason = ""
	l.UpdatedAt = now

	events := []event.Event{event.DeliverableAccepted{
		Base:       event.NewBase(o.ID, actor.Ref(), now),
		LivrableID: l.ID,
		Title:      l.Name,
	}}

	if o.Status == valueobject.OrderStatusUnderReview && o.AllLivrablesAccepted() {
		events = append(o.moveTo(actor, valueobject.OrderStatusCompleted, "Все результаты приняты клиентом", now), events...)
	}
	return l, events, nil
}

// RejectLivrable отклоняет результат. Статус заказа не меняется.
func (o *Order) RejectLivrable(actor Actor, livrableID uuid.UUID, reason string, now time.Time) (*Livrable, []event.Event, error) {
	if !actor.IsClient() || !o.IsOwnedBy(actor.UserID) {
		return nil, nil, apperror.New(apperror.ErrCodeUnauthorizedTransition, "отклонить результат может только клиент заказа")
	}
	if o.Status.IsTerminal() {
		return nil, nil, apperror.Validation("заказ уже закрыт")
	}
	l, err := o.FindLivrable(livrableID)
	if err != nil {
		return nil, nil, err
	}

	l.IsAccepted = false
	l.RejectionReason = reason
	l.UpdatedAt = now

	return l, []event.Event{event.DeliverableRejected{
		Base:       event.NewBase(o.ID, actor.Ref(), now),
		LivrableID: l.ID,
		Title:      l.Name,
		Reason:     reason,
	}}, nil
}
