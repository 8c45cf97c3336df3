package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/infrastructure/memory"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/notifier"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/worker"
)

type dispatcherFixture struct {
	store     *memory.Store
	tasks     *mockSubmitter
	pusher    *mockPusher
	sender    *mockSender
	hook      *test.Hook
	deps      DispatcherDeps
	admin     *entity.User
	client    *entity.User
	collabA   *entity.User
	collabB   *entity.User
	order     *entity.Order
	startedAt time.Time
}

func seedUser(t *testing.T, store *memory.Store, name string, role valueobject.Role) *entity.User {
	t.Helper()
	u := &entity.User{
		ID:       uuid.New(),
		Username: name,
		Email:    name + "@example.com",
		Phone:    "0612345678",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	store := memory.NewStore()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &dispatcherFixture{
		store:     store,
		tasks:     &mockSubmitter{},
		pusher:    &mockPusher{},
		sender:    &mockSender{enabled: map[valueobject.Channel]bool{valueobject.ChannelEmail: true}},
		hook:      hook,
		startedAt: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	f.admin = seedUser(t, store, "admin", valueobject.RoleAdmin)
	f.client = seedUser(t, store, "client", valueobject.RoleClient)
	f.collabA = seedUser(t, store, "collab_a", valueobject.RoleCollaborator)
	f.collabB = seedUser(t, store, "collab_b", valueobject.RoleCollaborator)

	serviceID := uuid.New()
	store.AddService(&entity.Service{ID: serviceID, Name: "Logo", IsActive: true})
	collab := f.collabA.ID
	f.order = &entity.Order{
		ID:             uuid.New(),
		ClientID:       f.client.ID,
		ServiceID:      serviceID,
		CollaboratorID: &collab,
		Status:         valueobject.OrderStatusConfirmed,
		DeadlineAt:     f.startedAt.Add(72 * time.Hour),
		TotalPrice:     decimal.NewFromInt(1000),
		CreatedAt:      f.startedAt,
		UpdatedAt:      f.startedAt,
	}
	require.NoError(t, store.Orders().Create(context.Background(), f.order, nil))

	f.deps = DispatcherDeps{
		Orders:        store.Orders(),
		Users:         store.Users(),
		Notifications: store.Notifications(),
		Pusher:        f.pusher,
		Tasks:         f.tasks,
		Sender:        f.sender,
		Log:           logger,
	}
	f.pusher.On("Push", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.tasks.On("Submit", mock.Anything).Return(nil).Maybe()
	return f
}

func (f *dispatcherFixture) dispatcher() *NotificationDispatcher {
	return NewNotificationDispatcher(f.deps)
}

func (f *dispatcherFixture) notificationsOf(t *testing.T, userID uuid.UUID) []*entity.Notification {
	t.Helper()
	list, err := f.store.Notifications().List(context.Background(), userID, 100, 0, false)
	require.NoError(t, err)
	return list
}

func countType(list []*entity.Notification, nt valueobject.NotificationType) int {
	n := 0
	for _, item := range list {
		if item.Type == nt {
			n++
		}
	}
	return n
}

func (f *dispatcherFixture) base(actor *entity.User) event.Base {
	var ref *uuid.UUID
	if actor != nil {
		id := actor.ID
		ref = &id
	}
	return event.NewBase(f.order.ID, ref, f.startedAt)
}

func TestDispatcher_NoOpReassignmentNotifiesNobody(t *testing.T) {
	f := newDispatcherFixture(t)
	a := f.collabA.ID

	f.dispatcher().Publish(context.Background(), event.CollaboratorAssigned{Base: f.base(f.admin), Old: &a, New: &a})

	assert.Empty(t, f.notificationsOf(t, f.collabA.ID))
	f.tasks.AssertNotCalled(t, "Submit", mock.Anything)
}

func TestDispatcher_ReassignmentNotifiesNewCollaboratorOnce(t *testing.T) {
	f := newDispatcherFixture(t)
	a, b := f.collabA.ID, f.collabB.ID

	f.dispatcher().Publish(context.Background(), event.CollaboratorAssigned{Base: f.base(f.admin), Old: &a, New: &b})

	assert.Equal(t, 1, countType(f.notificationsOf(t, f.collabB.ID), valueobject.NotificationOrderAssigned))
	assert.Empty(t, f.notificationsOf(t, f.collabA.ID))
	// Инициатор-администратор о своём действии не уведомляется.
	assert.Empty(t, f.notificationsOf(t, f.admin.ID))
}

func TestDispatcher_TasksCarryOnlyIdentifiers(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher().Publish(context.Background(), event.StatusChanged{
		Base: f.base(f.admin),
		Old:  valueobject.OrderStatusConfirmed,
		New:  valueobject.OrderStatusInProgress,
	})

	var submitted []worker.Task
	for _, call := range f.tasks.Calls {
		submitted = append(submitted, call.Arguments.Get(0).(worker.Task))
	}
	require.Len(t, submitted, 2)
	for _, task := range submitted {
		assert.Equal(t, TaskDeliverEmail, task.Kind)
		require.Len(t, task.Args, 1)
		id, err := task.Arg("notification_id")
		require.NoError(t, err)
		_, err = f.store.Notifications().GetByID(context.Background(), id)
		assert.NoError(t, err)
	}
	f.pusher.AssertNumberOfCalls(t, "Push", 2)
}

func TestDispatcher_DisabledChannelIsNotQueued(t *testing.T) {
	f := newDispatcherFixture(t)
	f.sender.enabled = map[valueobject.Channel]bool{}

	f.dispatcher().Publish(context.Background(), event.OrderCreated{Base: f.base(f.client), Status: valueobject.OrderStatusPending})

	assert.Equal(t, 1, countType(f.notificationsOf(t, f.client.ID), valueobject.NotificationOrderCreated))
	assert.Equal(t, 1, countType(f.notificationsOf(t, f.admin.ID), valueobject.NotificationOrderCreated))
	f.tasks.AssertNotCalled(t, "Submit", mock.Anything)
}

func TestDispatcher_AdminSMSOnOrderCreated(t *testing.T) {
	f := newDispatcherFixture(t)
	f.deps.AdminPhone = "+212600000000"
	f.sender.enabled[valueobject.ChannelSMS] = true

	f.dispatcher().Publish(context.Background(), event.OrderCreated{Base: f.base(f.admin), Status: valueobject.OrderStatusPending})

	found := false
	for _, call := range f.tasks.Calls {
		task := call.Arguments.Get(0).(worker.Task)
		if task.Kind == TaskAdminOrderSMS {
			found = true
			assert.Equal(t, f.order.ID.String(), task.Args["order_id"])
		}
	}
	assert.True(t, found)
}

type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) Create(ctx context.Context, n *entity.Notification) error {
	return errors.New("connection reset")
}

func TestDispatcher_NotificationFailureIsLoggedOnly(t *testing.T) {
	f := newDispatcherFixture(t)
	f.deps.Notifications = failingNotifications{f.store.Notifications()}

	assert.NotPanics(t, func() {
		f.dispatcher().Publish(context.Background(), event.OrderCompleted{Base: f.base(f.admin)})
	})

	f.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	f.tasks.AssertNotCalled(t, "Submit", mock.Anything)
	require.NotEmpty(t, f.hook.AllEntries())
	assert.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)
}

func TestDispatcher_MissingOrderSkipsEvent(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher().Publish(context.Background(), event.OrderCompleted{
		Base: event.NewBase(uuid.New(), nil, f.startedAt),
	})

	f.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
}

func (f *dispatcherFixture) storedNotification(t *testing.T, recipient *entity.User) *entity.Notification {
	t.Helper()
	n := &entity.Notification{
		ID:          uuid.New(),
		RecipientID: recipient.ID,
		Type:        valueobject.NotificationOrderCompleted,
		Title:       "Заказ завершён",
		Message:     "Заказ завершён.",
		Priority:    valueobject.PriorityHigh,
		CreatedAt:   f.startedAt,
	}
	require.NoError(t, f.store.Notifications().Create(context.Background(), n))
	return n
}

func notificationTask(kind string, id uuid.UUID) worker.Task {
	return worker.Task{ID: uuid.New(), Kind: kind, Args: map[string]string{"notification_id": id.String()}}
}

func TestDispatcher_DeliverEmailMarksSent(t *testing.T) {
	f := newDispatcherFixture(t)
	n := f.storedNotification(t, f.client)
	f.sender.On("Send", mock.Anything, mock.MatchedBy(func(msg notifier.Message) bool {
		return msg.Channel == valueobject.ChannelEmail && msg.To == f.client.Email
	})).Return(&notifier.Result{ProviderMessageID: "m-1"}, nil).Once()

	err := f.dispatcher().deliver(context.Background(), notificationTask(TaskDeliverEmail, n.ID), valueobject.ChannelEmail)
	require.NoError(t, err)

	stored, err := f.store.Notifications().GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmailSent)

	// Повторная доставка того же письма не отправляет его снова.
	require.NoError(t, f.dispatcher().deliver(context.Background(), notificationTask(TaskDeliverEmail, n.ID), valueobject.ChannelEmail))
	f.sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcher_DeliverErrorClassification(t *testing.T) {
	f := newDispatcherFixture(t)
	n := f.storedNotification(t, f.client)

	f.sender.On("Send", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: %w", notifier.ErrPermanent, notifier.ErrInvalidRecipient)).Once()
	err := f.dispatcher().deliver(context.Background(), notificationTask(TaskDeliverSMS, n.ID), valueobject.ChannelSMS)
	assert.False(t, worker.Retryable(err))

	f.sender.On("Send", mock.Anything, mock.Anything).
		Return(nil, errors.New("dial tcp: timeout")).Once()
	err = f.dispatcher().deliver(context.Background(), notificationTask(TaskDeliverSMS, n.ID), valueobject.ChannelSMS)
	assert.True(t, worker.Retryable(err))
}

func TestDispatcher_DeliverUnknownNotificationIsNotRetried(t *testing.T) {
	f := newDispatcherFixture(t)

	err := f.dispatcher().deliver(context.Background(), notificationTask(TaskDeliverEmail, uuid.New()), valueobject.ChannelEmail)

	require.Error(t, err)
	assert.False(t, worker.Retryable(err))
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_DeliverSkipsInactiveRecipient(t *testing.T) {
	f := newDispatcherFixture(t)
	n := f.storedNotification(t, f.client)
	require.NoError(t, f.store.Users().SetActive(context.Background(), f.client.ID, false))

	err := f.dispatcher().deliver(context.Background(), notificationTask(TaskDeliverEmail, n.ID), valueobject.ChannelEmail)

	assert.NoError(t, err)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
