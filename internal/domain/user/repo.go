package user

import (
	"context"

	"herptrack/internal/core/id"
)

// Repository defines the interface for User persistence.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error

	// ExistsByEmail checks for a registered email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Exists checks for an active user with the given ID; backs buyer
	// validation in the adoption flow
	Exists(ctx context.Context, userID id.ID) (bool, error)
}

// TokenRepository stores refresh tokens.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error
}
