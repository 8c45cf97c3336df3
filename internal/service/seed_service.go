package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/validation"
)

// SeedInput - начальные данные, создаваемые при запуске.
type SeedInput struct {
	AdminEmail    string
	AdminPassword string
	AdminPhone    string
	Services      []string
}

// SeedService заводит первого администратора и каталог услуг.
// Повторный запуск ничего не дублирует.
type SeedService struct {
	users    repository.UserRepository
	services repository.ServiceRepository
	settings *SettingsService
	log      *logrus.Logger
	now      func() time.Time
}

// NewSeedService создаёт сервис начальных данных.
func NewSeedService(users repository.UserRepository, services repository.ServiceRepository, settings *SettingsService, log *logrus.Logger) *SeedService {
	return &SeedService{
		users:    users,
		services: services,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

// Seed применяет начальные данные.
func (s *SeedService) Seed(ctx context.Context, in SeedInput) error {
	if in.AdminEmail != "" {
		if err := s.ensureAdmin(ctx, in); err != nil {
			return fmt.Errorf("seed service: admin: %w", err)
		}
	}

	if err := s.ensureServices(ctx, in.Services); err != nil {
		return fmt.Errorf("seed service: services: %w", err)
	}

	// Глобальные настройки создаются со значениями по умолчанию.
	if s.settings != nil {
		if _, err := s.settings.GetSettings(ctx); err != nil {
			return fmt.Errorf("seed service: settings: %w", err)
		}
	}
	return nil
}

func (s *SeedService) ensureAdmin(ctx context.Context, in SeedInput) error {
	email := strings.ToLower(strings.TrimSpace(in.AdminEmail))
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			return apperror.Validation("email администратора уже занят другой ролью")
		}
		return nil
	}
	if !apperror.IsNotFound(err) {
		return err
	}

	if err := validation.ValidatePassword(in.AdminPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	admin := &entity.User{
		ID:           uuid.New(),
		Username:     deriveUsername(email),
		Email:        email,
		Phone:        strings.TrimSpace(in.AdminPhone),
		PasswordHash: string(hash),
		Role:         valueobject.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.log.WithField("user_id", admin.ID.String()).Info("seed: администратор создан")
	return nil
}

func (s *SeedService) ensureServices(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	existing, err := s.services.List(ctx, false)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, svc := range existing {
		known[strings.ToLower(svc.Name)] = true
	}

	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || known[strings.ToLower(name)] {
			continue
		}
		if err := s.services.Create(ctx, &entity.Service{ID: uuid.New(), Name: name, IsActive: true}); err != nil {
			return err
		}
		known[strings.ToLower(name)] = true
		created++
	}

	if created > 0 {
		s.log.WithField("count", created).Info("seed: услуги добавлены")
	}
	return nil
}
