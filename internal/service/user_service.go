package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/validation"
)

// EventPublisher передаёт доменные события диспетчеру уведомлений.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event)
}

// UserService - вход, создание аккаунтов администратором и деактивация.
type UserService struct {
	users     repository.UserRepository
	tokens    *TokenManager
	publisher EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

func NewUserService(users repository.UserRepository, tokens *TokenManager, publisher EventPublisher, log *logrus.Logger) *UserService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UserService{users: users, tokens: tokens, publisher: publisher, log: log, now: time.Now}
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User      *entity.User
	TokenPair *TokenPair
}

// Login проверяет пароль и выдаёт токен. Неизвестный email и неверный
// пароль неразличимы для вызывающего.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт деактивирован")
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

type CreateCollaboratorInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// CreateCollaborator создаёт аккаунт исполнителя и уведомляет его по email.
func (s *UserService) CreateCollaborator(ctx context.Context, actor entity.Actor, in CreateCollaboratorInput) (*entity.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	return s.createUser(ctx, actor, valueobject.RoleCollaborator, in.Username, in.Email, in.Phone, in.Password)
}

type ClientContact struct {
	Username string
	Email    string
	Phone    string
}

// EnsureClient находит клиента по email или создаёт его со случайным паролем.
// Используется публичным приёмом заказов.
func (s *UserService) EnsureClient(ctx context.Context, in ClientContact) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != valueobject.RoleClient || !existing.IsActive {
			return nil, apperror.Validation("email принадлежит аккаунту, который не может оформлять заказы")
		}
		return existing, nil
	case !apperror.IsNotFound(err):
		return nil, err
	}

	username := in.Username
	if validation.ValidateUsername(username) != nil {
		username = deriveUsername(email)
	}
	return s.createUser(ctx, entity.SystemActor(), valueobject.RoleClient, username, email, in.Phone, uuid.NewString())
}

// deriveUsername строит допустимое имя пользователя из email.
func deriveUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(local))
	if len(name) > validation.MaxUsernameLength-12 {
		name = name[:validation.MaxUsernameLength-12]
	}
	if len(name) < validation.MinUsernameLength || name[0] < 'a' || name[0] > 'z' {
		name = "user_" + name
	}
	return name + "_" + uuid.NewString()[:6]
}

func (s *UserService) createUser(ctx context.Context, actor entity.Actor, role valueobject.Role, username, email, phone, password string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePhone(phone); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("email уже зарегистрирован")
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	now := s.now().UTC()
	user := &entity.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(username),
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID.String(), "role": string(role)}).Info("account created")
	if s.publisher != nil {
		s.publisher.Publish(ctx, event.AccountCreated{
			Base:   event.NewBase(uuid.Nil, actor.Ref(), now),
			UserID: user.ID,
			Role:   role,
		})
	}
	return user, nil
}

// Deactivate отключает аккаунт. Администраторов отключить нельзя.
func (s *UserService) Deactivate(ctx context.Context, actor entity.Actor, userID uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperror.ErrForbidden
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return apperror.Validation("администратора нельзя деактивировать")
	}
	if !user.IsActive {
		return nil
	}
	return s.users.SetActive(ctx, userID, false)
}
