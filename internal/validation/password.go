package validation

import (
	"unicode"
)

// bcrypt учитывает только первые 72 байта пароля.
const maxPasswordBytes = 72

// ValidatePassword: не менее 8 символов, заглавные и строчные буквы, цифры.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return invalid("пароль должен быть не менее 8 символов")
	}
	if len(password) > maxPasswordBytes {
		return invalid("пароль должен быть не длиннее %d байт", maxPasswordBytes)
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	switch {
	case !hasUpper:
		return invalid("пароль должен содержать хотя бы одну заглавную букву")
	case !hasLower:
		return invalid("пароль должен содержать хотя бы одну строчную букву")
	case !hasNumber:
		return invalid("пароль должен содержать хотя бы одну цифру")
	}
	return nil
}
