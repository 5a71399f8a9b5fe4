package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	u := NewUser("keeper@example.com", "hash")
	u.IsAdmin = true

	token, expiresAt, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uc.UserID)
	assert.Equal(t, u.Email, uc.Email)
	assert.True(t, uc.IsAdmin)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken(NewUser("keeper@example.com", "hash"))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestAccountLockout(t *testing.T) {
	u := NewUser("keeper@example.com", "hash")
	require.NoError(t, u.CanLogin())

	for i := 0; i < 5; i++ {
		u.RecordFailedLogin(5, 15*time.Minute)
	}
	assert.True(t, u.IsLocked())
	require.Error(t, u.CanLogin())

	u.RecordSuccessfulLogin()
	assert.False(t, u.IsLocked())
	require.NoError(t, u.CanLogin())
}
