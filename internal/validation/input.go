// Package validation проверяет пользовательский ввод до обращения к домену.
// Все функции возвращают apperror с кодом VALIDATION_ERROR.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxLivrableName   = 200
	MaxDescription    = 5000
	MaxReasonLength   = 1000
	MaxPhoneLength    = 20
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	usernameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phoneRegex       = regexp.MustCompile(`^\+?[0-9 ()-]+$`)
)

func invalid(format string, args ...interface{}) error {
	return apperror.Validation(fmt.Sprintf(format, args...))
}

// ValidateLength проверяет длину строки в символах. Ноль отключает границу.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return invalid("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return invalid("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return invalid("email обязателен")
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return invalid("некорректный формат email")
	}
	if len(local) == 0 || len(local) > 64 {
		return invalid("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domain) == 0 || len(domain) > 255 {
		return invalid("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(local) {
		return invalid("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domain) {
		return invalid("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername: латиница, цифры и подчёркивание, не с цифры.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid("имя пользователя обязательно")
	}
	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}
	if !usernameRegex.MatchString(username) {
		return invalid("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}
	if unicode.IsDigit(rune(username[0])) {
		return invalid("имя пользователя не может начинаться с цифры")
	}
	return nil
}

// ValidatePhone проверяет только набор символов. Нормализация номера
// выполняется при отправке SMS.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if len(phone) > MaxPhoneLength || !phoneRegex.MatchString(phone) {
		return invalid("некорректный номер телефона")
	}
	return nil
}

// ValidateReason проверяет причину отмены, отклонения или блокировки.
func ValidateReason(reason string) error {
	if err := ValidateNonEmpty("причина", reason); err != nil {
		return err
	}
	return ValidateLength("причина", reason, 0, MaxReasonLength)
}

func ValidateLivrable(name, description string) error {
	if err := ValidateNonEmpty("название результата", name); err != nil {
		return err
	}
	if err := ValidateLength("название результата", name, 0, MaxLivrableName); err != nil {
		return err
	}
	return ValidateLength("описание результата", description, 0, MaxDescription)
}
