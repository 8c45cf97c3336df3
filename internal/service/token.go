package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// TokenPair - выданный access токен. Обновляющие токены не выпускаются.
type TokenPair struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   time.Duration `json:"expires_in"`
}

// TokenManager отвечает за выпуск и проверку JWT.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

// Issue выпускает access токен с ролью пользователя.
func (m *TokenManager) Issue(user *entity.User) (*TokenPair, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.accessTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: token, ExpiresIn: m.accessTTL}, nil
}

// ParseAccess проверяет токен и возвращает актора. Роль разбирается один раз здесь.
func (m *TokenManager) ParseAccess(token string) (entity.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return entity.Actor{}, err
	}
	if !parsed.Valid {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return entity.Actor{}, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}

	rawRole, _ := claims["role"].(string)
	role, err := valueobject.NewRole(rawRole)
	if err != nil {
		return entity.Actor{}, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}

	return entity.NewActor(userID, role), nil
}
