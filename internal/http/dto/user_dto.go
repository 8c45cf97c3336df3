package dto

import (
	"time"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *UserSummary `json:"user"`
}

func ToLoginResponse(res *service.AuthResult) LoginResponse {
	return LoginResponse{
		AccessToken: res.TokenPair.AccessToken,
		ExpiresIn:   int64(res.TokenPair.ExpiresIn / time.Second),
		User:        ToUserSummary(res.User),
	}
}

type CreateCollaboratorRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}
