package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/notifier"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/worker"
)

// Виды фоновых задач доставки.
const (
	TaskDeliverEmail  = "deliver_email"
	TaskDeliverSMS    = "deliver_sms"
	TaskAdminOrderSMS = "admin_order_sms"
)

// Pusher доставляет внутреннее уведомление подключённым клиентам.
type Pusher interface {
	Push(ctx context.Context, n *entity.Notification) error
}

// TaskSubmitter ставит задачу в фоновую очередь.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

// TaskRegistry регистрирует обработчики задач.
type TaskRegistry interface {
	Register(kind string, h worker.Handler)
}

// ChannelSender отправляет сообщение во внешний канал и сообщает, настроен ли канал.
type ChannelSender interface {
	notifier.Notifier
	Enabled(ch valueobject.Channel) bool
}

type DispatcherDeps struct {
	Orders        repository.OrderRepository
	Users         repository.UserRepository
	Notifications repository.NotificationRepository
	Pusher        Pusher
	Tasks         TaskSubmitter
	Sender        ChannelSender
	// AdminPhone получает SMS о каждом новом заказе, если задан.
	AdminPhone string
	Log        *logrus.Logger
}

// NotificationDispatcher превращает доменные события в уведомления.
// Внутреннее уведомление создаётся сразу, email и SMS уходят в фоновую очередь.
// Ошибки рассылки только логируются и не влияют на уже сохранённое изменение заказа.
type NotificationDispatcher struct {
	deps DispatcherDeps
	log  *logrus.Logger
	now  func() time.Time
}

func NewNotificationDispatcher(deps DispatcherDeps) *NotificationDispatcher {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NotificationDispatcher{deps: deps, log: log, now: time.Now}
}

// RegisterTasks подключает обработчики доставки к исполнителю задач.
func (d *NotificationDispatcher) RegisterTasks(r TaskRegistry) {
	r.Register(TaskDeliverEmail, func(ctx context.Context, task worker.Task) error {
		return d.deliver(ctx, task, valueobject.ChannelEmail)
	})
	r.Register(TaskDeliverSMS, func(ctx context.Context, task worker.Task) error {
		return d.deliver(ctx, task, valueobject.ChannelSMS)
	})
	r.Register(TaskAdminOrderSMS, d.deliverAdminOrderSMS)
}

// Publish реализует публикацию событий для сценариев заказа.
func (d *NotificationDispatcher) Publish(ctx context.Context, events ...event.Event) {
	if len(events) == 0 {
		return
	}

	admins, err := d.deps.Users.ListActiveAdmins(ctx)
	if err != nil {
		d.log.WithError(err).Error("notification dispatcher: list admins")
	}

	orders := make(map[uuid.UUID]*entity.Order)
	for _, ev := range events {
		entry := d.log.WithFields(logrus.Fields{"event": ev.Name(), "order_id": ev.Meta().OrderID.String()})

		pc, ok := d.planContext(ctx, ev, orders, entry)
		if !ok {
			continue
		}
		pc.Admins = admins

		for _, intent := range PlanNotifications(ev, pc) {
			d.deliverIntent(ctx, ev, intent, entry)
		}

		if _, created := ev.(event.OrderCreated); created && d.adminSMSEnabled() {
			d.submit(worker.Task{
				Kind: TaskAdminOrderSMS,
				Args: map[string]string{"order_id": ev.Meta().OrderID.String()},
			}, entry)
		}
	}
}

func (d *NotificationDispatcher) planContext(ctx context.Context, ev event.Event, orders map[uuid.UUID]*entity.Order, entry *logrus.Entry) (PlanContext, bool) {
	if created, ok := ev.(event.AccountCreated); ok {
		user, err := d.deps.Users.GetByID(ctx, created.UserID)
		if err != nil {
			entry.WithError(err).Warn("notification dispatcher: account not found")
			return PlanContext{}, false
		}
		return PlanContext{User: user}, true
	}

	orderID := ev.Meta().OrderID
	order, ok := orders[orderID]
	if !ok {
		var err error
		order, err = d.deps.Orders.GetWithDetails(ctx, orderID)
		if err != nil {
			entry.WithError(err).Warn("notification dispatcher: order not found")
			return PlanContext{}, false
		}
		orders[orderID] = order
	}
	return PlanContext{Order: order}, true
}

func (d *NotificationDispatcher) deliverIntent(ctx context.Context, ev event.Event, intent Intent, entry *logrus.Entry) {
	entry = entry.WithFields(logrus.Fields{"recipient_id": intent.RecipientID.String(), "type": string(intent.Type)})

	n := &entity.Notification{
		ID:          uuid.New(),
		RecipientID: intent.RecipientID,
		Type:        intent.Type,
		Title:       intent.Title,
		Message:     intent.Message,
		Priority:    intent.Priority,
		LivrableID:  intent.LivrableID,
		CreatedAt:   d.now().UTC(),
	}
	if orderID := ev.Meta().OrderID; orderID != uuid.Nil {
		n.OrderID = &orderID
	}

	if err := d.deps.Notifications.Create(ctx, n); err != nil {
		entry.WithError(err).Error("notification dispatcher: create in-app notification")
		return
	}

	if d.deps.Pusher != nil {
		if err := d.deps.Pusher.Push(ctx, n); err != nil {
			entry.WithError(err).Warn("notification dispatcher: push notification")
		}
	}

	for _, ch := range intent.External {
		if d.deps.Sender == nil || !d.deps.Sender.Enabled(ch) {
			entry.WithField("channel", string(ch)).Debug("notification dispatcher: channel disabled")
			continue
		}
		kind := TaskDeliverEmail
		if ch == valueobject.ChannelSMS {
			kind = TaskDeliverSMS
		}
		d.submit(worker.Task{
			Kind: kind,
			Args: map[string]string{"notification_id": n.ID.String()},
		}, entry.WithField("channel", string(ch)))
	}
}

func (d *NotificationDispatcher) adminSMSEnabled() bool {
	return d.deps.AdminPhone != "" && d.deps.Sender != nil && d.deps.Sender.Enabled(valueobject.ChannelSMS)
}

func (d *NotificationDispatcher) submit(task worker.Task, entry *logrus.Entry) {
	if d.deps.Tasks == nil {
		return
	}
	if err := d.deps.Tasks.Submit(task); err != nil {
		entry.WithError(err).WithField("task", task.Kind).Error("notification dispatcher: submit delivery task")
	}
}

// deliver заново загружает уведомление и получателя и отправляет сообщение.
func (d *NotificationDispatcher) deliver(ctx context.Context, task worker.Task, ch valueobject.Channel) error {
	id, err := task.Arg("notification_id")
	if err != nil {
		return err
	}
	n, err := d.deps.Notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ch == valueobject.ChannelEmail && n.IsEmailSent {
		return nil
	}

	user, err := d.deps.Users.GetByID(ctx, n.RecipientID)
	if err != nil {
		return err
	}
	if !user.IsActive {
		d.log.WithFields(logrus.Fields{"recipient_id": user.ID.String(), "channel": string(ch)}).
			Info("notification dispatcher: recipient inactive, delivery skipped")
		return nil
	}

	to := user.Email
	if ch == valueobject.ChannelSMS {
		to = user.Phone
	}
	if to == "" {
		return worker.Permanent(apperror.Validation("у получателя не указан адрес для канала " + string(ch)))
	}

	res, err := d.deps.Sender.Send(ctx, notifier.Message{Channel: ch, To: to, Subject: n.Title, Body: n.Message})
	if err != nil {
		return deliveryError(err)
	}

	entry := d.log.WithFields(logrus.Fields{
		"notification_id":     n.ID.String(),
		"channel":             string(ch),
		"provider_message_id": res.ProviderMessageID,
	})
	if ch == valueobject.ChannelEmail {
		if err := d.deps.Notifications.MarkEmailSent(ctx, n.ID); err != nil {
			entry.WithError(err).Warn("notification dispatcher: mark email sent")
		}
	}
	entry.Info("notification delivered")
	return nil
}

func (d *NotificationDispatcher) deliverAdminOrderSMS(ctx context.Context, task worker.Task) error {
	orderID, err := task.Arg("order_id")
	if err != nil {
		return err
	}
	order, err := d.deps.Orders.GetWithDetails(ctx, orderID)
	if err != nil {
		return err
	}

	client := ""
	if order.Client != nil {
		client = order.Client.Username
	}
	body := "Новый заказ " + order.OrderNumber + " от " + client + ", сумма " + order.TotalPrice.StringFixed(valueobject.MoneyScale)

	res, err := d.deps.Sender.Send(ctx, notifier.Message{Channel: valueobject.ChannelSMS, To: d.deps.AdminPhone, Body: body})
	if err != nil {
		return deliveryError(err)
	}
	d.log.WithFields(logrus.Fields{"order_id": order.ID.String(), "provider_message_id": res.ProviderMessageID}).
		Info("admin order sms delivered")
	return nil
}

func deliveryError(err error) error {
	if notifier.IsPermanent(err) {
		return worker.Permanent(err)
	}
	return err
}
