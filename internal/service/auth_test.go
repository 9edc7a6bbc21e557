package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/repository/memory"
	"github.com/iliyamo/cinema-ticketing/internal/utils"
)

func newAuth() (*AuthService, *memory.Store) {
	store := memory.NewStore()
	return NewAuthService(store, AuthConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}), store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()

	u, tokens, err := auth.Register(ctx, " Fan@Example.com ", "Fan", "popcorn-lover")
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", u.Email)
	assert.Equal(t, model.RoleCustomer, u.Role)

	claims, err := utils.ParseAccessToken("test-secret", tokens.AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, _, err = auth.Register(ctx, "fan@example.com", "Other", "popcorn-lover")
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	_, _, err = auth.Register(ctx, "new@example.com", "New", "short")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = auth.Login(ctx, "fan@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "nobody@example.com", "popcorn-lover")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "FAN@example.com", "popcorn-lover")
	require.NoError(t, err)

	me, err := auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fan", me.Name)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()
	_, first, err := auth.Register(ctx, "fan@example.com", "Fan", "popcorn-lover")
	require.NoError(t, err)

	_, second, err := auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, _, err = auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "a rotated token cannot be reused")

	require.NoError(t, auth.Logout(ctx, second.RefreshToken))
	_, _, err = auth.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.NoError(t, auth.Logout(ctx, "unknown"))
}

func TestDisabledAccount(t *testing.T) {
	ctx := context.Background()
	auth, store := newAuth()
	u, tokens, err := auth.Register(ctx, "fan@example.com", "Fan", "popcorn-lover")
	require.NoError(t, err)

	users := NewUserService(store)
	admin := Actor{UserID: 999, Role: model.RoleAdmin}
	off := false
	_, err = users.Update(ctx, admin, u.ID, UserUpdate{IsActive: &off})
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "fan@example.com", "popcorn-lover")
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, _, err = auth.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "deactivation revokes refresh tokens")
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	auth, store := newAuth()

	require.NoError(t, auth.EnsureAdmin(ctx, "", "", ""))
	require.NoError(t, auth.EnsureAdmin(ctx, "root@example.com", "admin-password", ""))
	u, err := store.Users().GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "Administrator", u.Name)
	require.NoError(t, auth.EnsureAdmin(ctx, "root@example.com", "admin-password", ""), "idempotent")

	c, _, err := auth.Register(ctx, "boss@example.com", "Boss", "popcorn-lover")
	require.NoError(t, err)
	require.NoError(t, auth.EnsureAdmin(ctx, "boss@example.com", "ignored-password", ""))
	c, err = store.Users().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, c.Role)
}
