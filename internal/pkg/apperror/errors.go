package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden              ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest             ErrorCode = "BAD_REQUEST"
	ErrCodeConflict               ErrorCode = "CONFLICT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation             ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError          ErrorCode = "DATABASE_ERROR"
	ErrCodeUnauthorizedTransition ErrorCode = "UNAUTHORIZED_TRANSITION"
	ErrCodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeTransientDelivery      ErrorCode = "TRANSIENT_DELIVERY"
	ErrCodeConfiguration          ErrorCode = "CONFIGURATION_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation - сокращение для ошибок входных данных.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeUnauthorizedTransition:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeConcurrentModification:
		return http.StatusConflict
	case ErrCodeTransientDelivery:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или пустую строку, если это не AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsUnauthorizedTransition(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorizedTransition
}

func IsConcurrentModification(err error) bool {
	return CodeOf(err) == ErrCodeConcurrentModification
}

func IsTransientDelivery(err error) bool {
	return CodeOf(err) == ErrCodeTransientDelivery
}

func IsConfiguration(err error) bool {
	return CodeOf(err) == ErrCodeConfiguration
}

var (
	ErrOrderNotFound          = New(ErrCodeNotFound, "заказ не найден")
	ErrLivrableNotFound       = New(ErrCodeNotFound, "результат работы не найден")
	ErrUserNotFound           = New(ErrCodeNotFound, "пользователь не найден")
	ErrServiceNotFound        = New(ErrCodeNotFound, "услуга не найдена")
	ErrNotificationNotFound   = New(ErrCodeNotFound, "уведомление не найдено")
	ErrSettingsNotFound       = New(ErrCodeNotFound, "глобальные настройки не созданы")
	ErrUnauthorized           = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden              = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials     = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrConcurrentModification = New(ErrCodeConcurrentModification, "заказ был изменён другим пользователем, обновите данные и повторите")
	ErrSettingsAlreadyExist   = New(ErrCodeValidation, "глобальные настройки уже существуют, допускается только одна запись")
)
