// Package worker выполняет побочные эффекты (email, SMS) вне обработки запроса.
// Задачи несут только идентификаторы и заново загружают состояние при выполнении.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/goroutine"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

var (
	ErrPermanent     = errors.New("permanent task failure")
	ErrQueueFull     = errors.New("task queue is full")
	ErrStopped       = errors.New("task runner is stopped")
	ErrUnknownTask   = errors.New("unknown task kind")
	errBackoffCancel = errors.New("backoff interrupted")
)

// Permanent помечает ошибку как неповторяемую.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Task - единица фоновой работы. Args содержит только идентификаторы.
type Task struct {
	ID   uuid.UUID
	Kind string
	Args map[string]string
}

// Arg разбирает идентификатор из аргументов задачи.
func (t Task) Arg(name string) (uuid.UUID, error) {
	raw, ok := t.Args[name]
	if !ok {
		return uuid.Nil, Permanent(fmt.Errorf("task %s: missing argument %q", t.Kind, name))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, Permanent(fmt.Errorf("task %s: argument %q: %w", t.Kind, name, err))
	}
	return id, nil
}

// Handler выполняет задачу одного вида.
type Handler func(ctx context.Context, task Task) error

type Config struct {
	Concurrency int
	QueueSize   int
	MaxRetries  int
	BackoffBase time.Duration
}

// Runner - пул обработчиков с ограниченной очередью и повтором с экспоненциальной задержкой.
type Runner struct {
	cfg      Config
	log      *logrus.Logger
	recovery *goroutine.RecoveryHandler

	mu       sync.RWMutex
	handlers map[string]Handler
	stopped  bool

	queue   chan Task
	wg      sync.WaitGroup
	started bool

	// abort прерывает ожидание между повторами, если Stop не дождался очереди.
	abort     chan struct{}
	abortOnce sync.Once
}

func NewRunner(cfg Config, log *logrus.Logger) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		cfg:      cfg,
		log:      log,
		recovery: goroutine.NewRecoveryHandler(log),
		handlers: make(map[string]Handler),
		queue:    make(chan Task, cfg.QueueSize),
		abort:    make(chan struct{}),
	}
}

// Register связывает вид задачи с обработчиком. Вызывается до Start.
func (r *Runner) Register(kind string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Submit ставит задачу в очередь, не блокируясь.
func (r *Runner) Submit(task Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrStopped
	}
	if _, ok := r.handlers[task.Kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, task.Kind)
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	select {
	case r.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start запускает обработчики. Повторный вызов ничего не делает.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true

	for i := 0; i < r.cfg.Concurrency; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for task := range r.queue {
				r.process(task)
			}
		}()
	}
	r.log.WithField("workers", r.cfg.Concurrency).Info("task runner started")
}

// Stop прекращает приём задач и дожидается выполнения уже поставленных.
// Если ctx истекает раньше, ожидания между повторами прерываются и
// возвращается ошибка контекста.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.queue)
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("task runner stopped")
		return nil
	case <-ctx.Done():
		r.abortOnce.Do(func() { close(r.abort) })
		<-done
		return ctx.Err()
	}
}

func (r *Runner) process(task Task) {
	r.mu.RLock()
	handler := r.handlers[task.Kind]
	r.mu.RUnlock()

	entry := r.log.WithFields(logrus.Fields{"task": task.Kind, "task_id": task.ID.String()})
	maxAttempts := r.cfg.MaxRetries + 1

	for attempt := 1; ; attempt++ {
		err := r.recovery.Run("task "+task.Kind, func() error {
			return handler(context.Background(), task)
		})
		if err == nil {
			if attempt > 1 {
				entry.WithField("attempt", attempt).Info("task succeeded after retry")
			}
			return
		}

		entry := entry.WithField("attempt", attempt).WithError(err)
		switch {
		case apperror.IsNotFound(err):
			entry.Warn("task skipped: referenced entity not found")
			return
		case !Retryable(err):
			entry.Error("task failed permanently")
			return
		case attempt >= maxAttempts:
			entry.Error("task failed: retries exhausted")
			return
		}

		delay := Backoff(r.cfg.BackoffBase, attempt)
		entry.WithField("retry_in", delay.String()).Warn("task failed, will retry")
		if err := r.wait(delay); err != nil {
			entry.Error("task abandoned: runner shutdown deadline exceeded")
			return
		}
	}
}

func (r *Runner) wait(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-r.abort:
		return errBackoffCancel
	}
}

// Retryable сообщает, имеет ли смысл повторять задачу после ошибки.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrPermanent) {
		return false
	}
	switch apperror.CodeOf(err) {
	case apperror.ErrCodeNotFound, apperror.ErrCodeValidation, apperror.ErrCodeConfiguration:
		return false
	}
	return true
}

// Backoff возвращает задержку перед повтором номер attempt: base * 2^(attempt-1).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}
