// Package auth_repo provides the PostgreSQL implementations of the user
// directory and refresh token repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/id"
	"herptrack/internal/domain/user"
	"herptrack/internal/infrastructure/storage/postgres"
)

// UserRepo implements user.Repository.
type UserRepo struct {
	txm *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

var _ user.Repository = (*UserRepo)(nil)

const userSelect = `
	SELECT id, email, password_hash, display_name,
		   is_active, is_admin, last_login_at,
		   failed_login_attempts, locked_until,
		   created_at, updated_at, deleted_at, version
	FROM users
`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.IsActive, &u.IsAdmin, &u.LastLoginAt,
		&u.FailedLoginAttempts, &u.LockedUntil,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt, &u.Version,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	q := r.txm.GetQuerier(ctx)

	query := `
		INSERT INTO users (
			id, email, password_hash, display_name,
			is_active, is_admin, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.DisplayName,
		u.IsActive, u.IsAdmin, u.CreatedAt, u.UpdatedAt, u.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*user.User, error) {
	q := r.txm.GetQuerier(ctx)

	query := userSelect + `WHERE id = $1 AND deleted_at IS NULL`

	u, err := scanUser(q.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	q := r.txm.GetQuerier(ctx)

	query := userSelect + `WHERE email = $1 AND deleted_at IS NULL`

	u, err := scanUser(q.QueryRow(ctx, query, email))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// Update updates user data with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	q := r.txm.GetQuerier(ctx)

	query := `
		UPDATE users SET
			display_name = $2,
			is_active = $3,
			is_admin = $4,
			last_login_at = $5,
			failed_login_attempts = $6,
			locked_until = $7,
			password_hash = $8,
			updated_at = now(),
			version = version + 1
		WHERE id = $1 AND deleted_at IS NULL AND version = $9
	`

	result, err := q.Exec(ctx, query,
		u.ID, u.DisplayName, u.IsActive, u.IsAdmin,
		u.LastLoginAt, u.FailedLoginAttempts, u.LockedUntil,
		u.PasswordHash, u.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", u.ID)
	}

	u.Version++
	return nil
}

// ExistsByEmail checks for a registered email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := r.txm.GetQuerier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := q.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Exists checks for an active user with the given ID.
func (r *UserRepo) Exists(ctx context.Context, userID id.ID) (bool, error) {
	q := r.txm.GetQuerier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL AND is_active)`

	var exists bool
	if err := q.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
