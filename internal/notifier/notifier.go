// Package notifier доставляет сообщения во внешние каналы: email и SMS.
// Ошибки делятся на временные (apperror TRANSIENT_DELIVERY, повторяются
// исполнителем задач) и постоянные (ErrPermanent, не повторяются).
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

var (
	ErrPermanent            = errors.New("permanent delivery failure")
	ErrChannelNotConfigured = errors.New("channel is not configured")
	ErrInvalidRecipient     = errors.New("invalid recipient")
)

// Message - одно сообщение одному получателю. To - адрес почты или номер телефона.
type Message struct {
	Channel valueobject.Channel
	To      string
	Subject string
	Body    string
}

// Result - ответ провайдера при успешной отправке.
type Result struct {
	ProviderMessageID string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// IsPermanent сообщает, что повтор отправки не поможет.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

func permanentf(cause error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %w", ErrPermanent, fmt.Sprintf(format, args...), cause)
}

func transient(err error, message string) error {
	return apperror.Wrap(err, apperror.ErrCodeTransientDelivery, message)
}

// Router выбирает адаптер по каналу сообщения.
type Router struct {
	channels map[valueobject.Channel]Notifier
}

func NewRouter() *Router {
	return &Router{channels: make(map[valueobject.Channel]Notifier)}
}

// Handle регистрирует адаптер канала.
func (r *Router) Handle(ch valueobject.Channel, n Notifier) *Router {
	if n != nil {
		r.channels[ch] = n
	}
	return r
}

// Enabled сообщает, настроен ли канал.
func (r *Router) Enabled(ch valueobject.Channel) bool {
	_, ok := r.channels[ch]
	return ok
}

func (r *Router) Send(ctx context.Context, msg Message) (*Result, error) {
	n, ok := r.channels[msg.Channel]
	if !ok {
		return nil, permanentf(ErrChannelNotConfigured, "channel %s", msg.Channel)
	}
	return n.Send(ctx, msg)
}
