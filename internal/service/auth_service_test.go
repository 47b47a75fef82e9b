package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hazardwatch/ticket-engine/internal/config"
	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/repository"
)

func newAuthService() *AuthService {
	store := repository.NewMemoryStore()
	return NewAuthService(store.Users(), config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Riley",
		Email:    "Riley@Example.org",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleReporter, user.Role)
	assert.Equal(t, "riley@example.org", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	logged, token, expiresAt, err := svc.Login(ctx, "riley@example.org", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.SubjectID)
	assert.Equal(t, domain.RoleReporter, claims.Role)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.org", Password: "longenough"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "a@example.org", Password: "longenough"})
	require.Error(t, err)
}

func TestRegisterRejectsShortPasswordAndBadRole(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "b@example.org", Password: "short"})
	require.Error(t, err)

	_, err = svc.Register(ctx, RegisterInput{
		Email: "c@example.org", Password: "longenough", Role: domain.Role("WIZARD"),
	})
	require.Error(t, err)
	_, err = svc.Register(ctx, RegisterInput{
		Email: "d@example.org", Password: "longenough", Role: domain.RoleSystem,
	})
	require.Error(t, err)
}

func TestLoginFailures(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "e@example.org", Password: "longenough"})
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "e@example.org", "wrong password")
	require.Error(t, err)
	_, _, _, err = svc.Login(ctx, "nobody@example.org", "whatever")
	require.Error(t, err)

	// Suspended accounts cannot log in even with valid credentials.
	user.Status = domain.UserStatusSuspended
	require.NoError(t, svc.users.Update(ctx, user))
	_, _, _, err = svc.Login(ctx, "e@example.org", "longenough")
	require.Error(t, err)
}
