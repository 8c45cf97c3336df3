package common

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL, которые обрабатываются репозиториями.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsUniqueViolation сообщает о нарушении уникального ограничения.
// Если constraint не пуст, проверяется и имя ограничения.
func IsUniqueViolation(err error, constraint string) bool {
	return isPQCode(err, codeUniqueViolation, constraint)
}

// IsForeignKeyViolation сообщает о ссылке на несуществующую строку.
func IsForeignKeyViolation(err error, constraint string) bool {
	return isPQCode(err, codeForeignKeyViolation, constraint)
}

func isPQCode(err error, code, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != code {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
