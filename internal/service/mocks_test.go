package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/notifier"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/worker"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(task worker.Task) error {
	args := m.Called(task)
	return args.Error(0)
}

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) Push(ctx context.Context, n *entity.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type mockSender struct {
	mock.Mock
	enabled map[valueobject.Channel]bool
}

func (m *mockSender) Send(ctx context.Context, msg notifier.Message) (*notifier.Result, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifier.Result), args.Error(1)
}

func (m *mockSender) Enabled(ch valueobject.Channel) bool {
	return m.enabled[ch]
}

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}
