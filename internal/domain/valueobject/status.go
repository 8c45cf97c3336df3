package valueobject

import "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"

type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusConfirmed   OrderStatus = "confirmed"
	OrderStatusInProgress  OrderStatus = "in_progress"
	OrderStatusUnderReview OrderStatus = "under_review"
	OrderStatusCompleted   OrderStatus = "completed"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

// orderTransitions описывает допустимые переходы между статусами заказа.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:     {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:   {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress:  {OrderStatusUnderReview, OrderStatusCancelled},
	OrderStatusUnderReview: {OrderStatusCompleted, OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusCompleted:   {},
	OrderStatusCancelled:   {},
}

// AllOrderStatuses возвращает все статусы в порядке жизненного цикла.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusInProgress,
		OrderStatusUnderReview,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	allowed, ok := orderTransitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус заказа")
	}
	return s, nil
}
