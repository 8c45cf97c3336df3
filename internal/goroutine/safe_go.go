package goroutine

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recover("goroutine")
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recover("goroutine (with context)")
		fn(ctx)
	}()
}

// Run выполняет fn в текущей горутине и превращает panic в ошибку.
// Используется исполнителем фоновых задач, чтобы паника задачи считалась её неудачей.
func (rh *RecoveryHandler) Run(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rh.logger.Errorf("Panic in %s: %v\nStack trace:\n%s", name, r, debug.Stack())
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn()
}

func (rh *RecoveryHandler) recover(where string) {
	if r := recover(); r != nil {
		rh.logger.Errorf("Panic in %s: %v\nStack trace:\n%s", where, r, debug.Stack())
	}
}

// DefaultRecoveryHandler - глобальный обработчик, пишущий в стандартный логгер logrus.
// После logger.Init main заменяет его через SetDefaultLogger.
var DefaultRecoveryHandler = NewRecoveryHandler(logrus.StandardLogger())

// SetDefaultLogger переключает глобальный обработчик на переданный логгер.
func SetDefaultLogger(logger Logger) {
	DefaultRecoveryHandler = NewRecoveryHandler(logger)
}

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext - упрощенная функция для запуска безопасной горутины с контекстом
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}
