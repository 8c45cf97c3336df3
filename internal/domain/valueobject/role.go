package valueobject

import "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"

// Role - роль аутентифицированного пользователя, определяется один раз при разборе токена.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleClient       Role = "client"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCollaborator, RoleClient:
		return true
	}
	return false
}

func NewRole(role string) (Role, error) {
	r := Role(role)
	if !r.IsValid() {
		return "", apperror.Validation("некорректная роль пользователя")
	}
	return r, nil
}
