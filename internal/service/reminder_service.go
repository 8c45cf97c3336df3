package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// DefaultDeadlineWindow - за сколько до срока исполнитель получает напоминание.
const DefaultDeadlineWindow = 48 * time.Hour

// ReminderService выпускает напоминания о сроках и оплате от имени системы.
type ReminderService struct {
	orders         repository.OrderRepository
	publisher      EventPublisher
	deadlineWindow time.Duration
	log            *logrus.Logger
	now            func() time.Time
}

func NewReminderService(orders repository.OrderRepository, publisher EventPublisher, deadlineWindow time.Duration, log *logrus.Logger) *ReminderService {
	if deadlineWindow <= 0 {
		deadlineWindow = DefaultDeadlineWindow
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReminderService{
		orders:         orders,
		publisher:      publisher,
		deadlineWindow: deadlineWindow,
		log:            log,
		now:            time.Now,
	}
}

// SendDeadlineReminders напоминает исполнителям о заказах, срок которых
// наступает в ближайшее окно. Возвращает число напоминаний.
func (s *ReminderService) SendDeadlineReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	orders, err := s.orders.ListDeadlineBetween(ctx, now, now.Add(s.deadlineWindow))
	if err != nil {
		return 0, err
	}

	var events []event.Event
	for _, o := range orders {
		if o.CollaboratorID == nil {
			continue
		}
		events = append(events, event.DeadlineApproaching{
			Base:       event.NewBase(o.ID, nil, now),
			DeadlineAt: o.DeadlineAt,
		})
	}
	s.publish(ctx, "deadline", events)
	return len(events), nil
}

// SendPaymentReminders напоминает клиентам об остатке оплаты.
func (s *ReminderService) SendPaymentReminders(ctx context.Context) (int, error) {
	orders, err := s.orders.ListWithOutstandingPayment(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	var events []event.Event
	for _, o := range orders {
		if !needsPaymentReminder(o) {
			continue
		}
		events = append(events, event.PaymentDue{
			Base:      event.NewBase(o.ID, nil, now),
			Remaining: o.RemainingPayment().StringFixed(valueobject.MoneyScale),
		})
	}
	s.publish(ctx, "payment", events)
	return len(events), nil
}

func needsPaymentReminder(o *entity.Order) bool {
	return o.Status != valueobject.OrderStatusCancelled && !o.IsFullyPaid() && !o.IsBlacklisted
}

func (s *ReminderService) publish(ctx context.Context, kind string, events []event.Event) {
	if len(events) == 0 {
		return
	}
	s.publisher.Publish(ctx, events...)
	s.log.WithFields(logrus.Fields{"reminder": kind, "count": len(events)}).Info("reminders published")
}
