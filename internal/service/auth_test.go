package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/team-formation/internal/domain"
	"github.com/aidar/team-formation/internal/notifier"
)

func newTestAuthService() (*AuthService, *memUserRepo) {
	userRepo := newMemUserRepo()
	svc := NewAuthService(userRepo, notifier.Noop{}, testLogger(), "test-secret", time.Hour)
	return svc, userRepo
}

func TestRegister_TokenRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123", "Backend")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "backend", claims.Domain, "explicit domain is normalized into the claim")
}

func TestRegister_DomainClaimFallsBackToEmailHost(t *testing.T) {
	svc, _ := newTestAuthService()

	token, _, err := svc.Register(context.Background(), "Bob", "bob@Campus.EDU", "secret123", "")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "campus.edu", claims.Domain)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Someone", "alice@example.com", "other456", "")
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, registered, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, registered.ID, user.ID)

	// Неверный пароль и несуществующий email дают одну и ту же ошибку
	_, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "ghost@example.com", "secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.ValidateToken("not-a-token")

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc, userRepo := newTestAuthService()

	token, _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)

	other := NewAuthService(userRepo, notifier.Noop{}, testLogger(), "another-secret", time.Hour)
	_, err = other.ValidateToken(token)

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
