package dto

import (
	"herptrack/internal/domain/user"
)

// RegisterRequest for account creation.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

// ToUserRequest converts to the domain register request.
func (r RegisterRequest) ToUserRequest() user.RegisterRequest {
	return user.RegisterRequest{
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: r.DisplayName,
	}
}

// LoginRequest for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r LoginRequest) ToCredentials() user.Credentials {
	return user.Credentials{Email: r.Email, Password: r.Password}
}

// RefreshTokenRequest for token renewal.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LoginResponse combines tokens with the authenticated user.
type LoginResponse struct {
	Tokens *user.TokenPair `json:"tokens"`
	User   *user.User      `json:"user"`
}
