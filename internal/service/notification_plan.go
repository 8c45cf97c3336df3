package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// Intent - одно уведомление одному получателю. Внутреннее уведомление
// создаётся всегда, External перечисляет дополнительные внешние каналы.
type Intent struct {
	RecipientID uuid.UUID
	Type        valueobject.NotificationType
	Priority    valueobject.NotificationPriority
	Title       string
	Message     string
	LivrableID  *uuid.UUID
	External    []valueobject.Channel
}

// PlanContext - состояние, загруженное на момент рассылки.
type PlanContext struct {
	Order  *entity.Order
	Admins []*entity.User
	// User - адресат событий без заказа (AccountCreated).
	User *entity.User
}

var (
	viaEmail       = []valueobject.Channel{valueobject.ChannelEmail}
	viaEmailAndSMS = []valueobject.Channel{valueobject.ChannelEmail, valueobject.ChannelSMS}
)

// PlanNotifications сопоставляет событию список получателей и каналов.
// Инициатор события уведомлений о собственном действии не получает,
// кроме подтверждения создания заказа клиенту.
func PlanNotifications(ev event.Event, pc PlanContext) []Intent {
	p := planner{meta: ev.Meta(), pc: pc}

	switch e := ev.(type) {
	case event.OrderCreated:
		p.client(true, valueobject.NotificationOrderCreated, valueobject.PriorityMedium,
			"Заказ принят",
			fmt.Sprintf("Ваш заказ %s принят в работу. Срок: %s.", p.number(), p.deadline()),
			nil, viaEmailAndSMS)
		p.admins(valueobject.NotificationOrderCreated, valueobject.PriorityMedium,
			"Новый заказ",
			fmt.Sprintf("Создан заказ %s на сумму %s.", p.number(), p.pc.Order.TotalPrice.StringFixed(valueobject.MoneyScale)))

	case event.CollaboratorAssigned:
		if sameUser(e.Old, e.New) || e.New == nil {
			return nil
		}
		p.add(*e.New, valueobject.NotificationOrderAssigned, valueobject.PriorityHigh,
			"Вам назначен заказ",
			fmt.Sprintf("Вы назначены исполнителем заказа %s. Срок: %s.", p.number(), p.deadline()),
			nil, viaEmail)
		p.admins(valueobject.NotificationOrderAssigned, valueobject.PriorityMedium,
			"Исполнитель назначен",
			fmt.Sprintf("Для заказа %s назначен исполнитель.", p.number()))

	case event.StatusChanged:
		// Завершение и отмену сообщают отдельные события.
		if e.New == valueobject.OrderStatusCompleted || e.New == valueobject.OrderStatusCancelled {
			return nil
		}
		title := "Статус заказа изменён"
		msg := fmt.Sprintf("Заказ %s: %s → %s.", p.number(), e.Old, e.New)
		p.client(false, valueobject.NotificationOrderStatusChanged, valueobject.PriorityMedium, title, msg, nil, viaEmail)
		p.collaborator(valueobject.NotificationOrderStatusChanged, valueobject.PriorityMedium, title, msg, nil, viaEmail)

	case event.OrderCompleted:
		msg := fmt.Sprintf("Заказ %s завершён.", p.number())
		p.client(false, valueobject.NotificationOrderCompleted, valueobject.PriorityHigh, "Заказ завершён", msg, nil, viaEmail)
		p.collaborator(valueobject.NotificationOrderCompleted, valueobject.PriorityHigh, "Заказ завершён", msg, nil, viaEmail)
		p.client(false, valueobject.NotificationReviewReminder, valueobject.PriorityLow,
			"Оцените работу",
			fmt.Sprintf("Оставьте отзыв о заказе %s.", p.number()), nil, nil)

	case event.OrderCancelled:
		msg := fmt.Sprintf("Заказ %s отменён. Причина: %s", p.number(), e.Reason)
		p.admins(valueobject.NotificationOrderCancelled, valueobject.PriorityHigh, "Заказ отменён", msg)
		p.client(false, valueobject.NotificationOrderCancelled, valueobject.PriorityHigh, "Заказ отменён", msg, nil, viaEmail)
		p.collaborator(valueobject.NotificationOrderCancelled, valueobject.PriorityHigh, "Заказ отменён", msg, nil, viaEmail)

	case event.DeliverableUploaded:
		id := e.LivrableID
		p.client(false, valueobject.NotificationLivrableUploaded, valueobject.PriorityMedium,
			"Загружен результат",
			fmt.Sprintf("По заказу %s загружен результат «%s».", p.number(), e.Title), &id, nil)
		p.admins(valueobject.NotificationLivrableUploaded, valueobject.PriorityMedium,
			"Результат ждёт проверки",
			fmt.Sprintf("Результат «%s» по заказу %s ждёт проверки.", e.Title, p.number()))

	case event.DeliverableReviewed:
		id := e.LivrableID
		p.client(false, valueobject.NotificationLivrableReviewed, valueobject.PriorityMedium,
			"Результат проверен",
			fmt.Sprintf("Результат «%s» по заказу %s проверен и ждёт вашего решения.", e.Title, p.number()), &id, viaEmail)

	case event.DeliverableAccepted:
		id := e.LivrableID
		p.collaborator(valueobject.NotificationLivrableAccepted, valueobject.PriorityMedium,
			"Результат принят",
			fmt.Sprintf("Клиент принял результат «%s» по заказу %s.", e.Title, p.number()), &id, viaEmail)

	case event.DeliverableRejected:
		id := e.LivrableID
		p.collaborator(valueobject.NotificationLivrableRejected, valueobject.PriorityHigh,
			"Результат отклонён",
			fmt.Sprintf("Клиент отклонил результат «%s» по заказу %s. Причина: %s", e.Title, p.number(), e.Reason), &id, viaEmail)

	case event.ClientBlacklisted:
		p.add(e.ClientID, valueobject.NotificationUserBlacklisted, valueobject.PriorityUrgent,
			"Аккаунт ограничен",
			fmt.Sprintf("Работа по заказу %s приостановлена. Причина: %s", p.number(), e.Reason), nil, viaEmail)

	case event.AccountCreated:
		if pc.User == nil {
			return nil
		}
		p.intents = append(p.intents, Intent{
			RecipientID: e.UserID,
			Type:        valueobject.NotificationAccountCreated,
			Priority:    valueobject.PriorityMedium,
			Title:       "Аккаунт создан",
			Message:     fmt.Sprintf("Для вас создан аккаунт %s. Вход по адресу %s.", pc.User.Username, pc.User.Email),
			External:    viaEmail,
		})

	case event.DeadlineApproaching:
		priority := valueobject.PriorityMedium
		if e.DeadlineAt.Sub(e.OccurredAt) <= 24*time.Hour {
			priority = valueobject.PriorityHigh
		}
		p.collaborator(valueobject.NotificationDeadlineReminder, priority,
			"Приближается срок",
			fmt.Sprintf("Срок заказа %s истекает %s.", p.number(), e.DeadlineAt.Format("02.01.2006 15:04")), nil, viaEmail)

	case event.PaymentDue:
		p.client(false, valueobject.NotificationPaymentReminder, valueobject.PriorityMedium,
			"Напоминание об оплате",
			fmt.Sprintf("По заказу %s осталось оплатить %s.", p.number(), e.Remaining), nil, viaEmail)
	}

	return p.intents
}

type planner struct {
	meta    event.Base
	pc      PlanContext
	intents []Intent
}

func (p *planner) number() string {
	if p.pc.Order == nil {
		return ""
	}
	return p.pc.Order.OrderNumber
}

func (p *planner) deadline() string {
	if p.pc.Order == nil {
		return ""
	}
	return p.pc.Order.DeadlineAt.Format("02.01.2006")
}

func (p *planner) add(recipient uuid.UUID, t valueobject.NotificationType, prio valueobject.NotificationPriority, title, msg string, livrableID *uuid.UUID, external []valueobject.Channel) {
	if recipient == uuid.Nil || p.meta.IsActor(recipient) {
		return
	}
	p.intents = append(p.intents, Intent{
		RecipientID: recipient,
		Type:        t,
		Priority:    prio,
		Title:       title,
		Message:     msg,
		LivrableID:  livrableID,
		External:    external,
	})
}

// client уведомляет клиента заказа. includeActor разрешает уведомить клиента
// о его собственном действии.
func (p *planner) client(includeActor bool, t valueobject.NotificationType, prio valueobject.NotificationPriority, title, msg string, livrableID *uuid.UUID, external []valueobject.Channel) {
	if p.pc.Order == nil {
		return
	}
	id := p.pc.Order.ClientID
	if includeActor && p.meta.IsActor(id) {
		p.intents = append(p.intents, Intent{
			RecipientID: id, Type: t, Priority: prio, Title: title, Message: msg,
			LivrableID: livrableID, External: external,
		})
		return
	}
	p.add(id, t, prio, title, msg, livrableID, external)
}

func (p *planner) collaborator(t valueobject.NotificationType, prio valueobject.NotificationPriority, title, msg string, livrableID *uuid.UUID, external []valueobject.Channel) {
	if p.pc.Order == nil || p.pc.Order.CollaboratorID == nil {
		return
	}
	p.add(*p.pc.Order.CollaboratorID, t, prio, title, msg, livrableID, external)
}

func (p *planner) admins(t valueobject.NotificationType, prio valueobject.NotificationPriority, title, msg string) {
	for _, admin := range p.pc.Admins {
		p.add(admin.ID, t, prio, title, msg, nil, nil)
	}
}

func sameUser(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
