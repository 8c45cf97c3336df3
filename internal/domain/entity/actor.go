package entity

import (
	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// Actor - инициатор действия. Роль определяется один раз при разборе токена.
// Нулевой UserID означает системное действие (фоновые задачи, планировщик).
type Actor struct {
	UserID uuid.UUID
	Role   valueobject.Role
}

// SystemActor возвращает актора для действий без пользователя.
func SystemActor() Actor {
	return Actor{}
}

func NewActor(userID uuid.UUID, role valueobject.Role) Actor {
	return Actor{UserID: userID, Role: role}
}

func (a Actor) IsSystem() bool {
	return a.UserID == uuid.Nil
}

func (a Actor) IsAdmin() bool {
	return !a.IsSystem() && a.Role == valueobject.RoleAdmin
}

func (a Actor) IsCollaborator() bool {
	return !a.IsSystem() && a.Role == valueobject.RoleCollaborator
}

func (a Actor) IsClient() bool {
	return !a.IsSystem() && a.Role == valueobject.RoleClient
}

// Ref возвращает ссылку на пользователя для журнала, nil для системы.
func (a Actor) Ref() *uuid.UUID {
	if a.IsSystem() {
		return nil
	}
	id := a.UserID
	return &id
}
