package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
)

func TestRegister(t *testing.T) {
	env := setupServiceTest(t)

	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct-horse",
		Name:     "Reader",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "reader@example.com", resp.User.Email)
	assert.Equal(t, domain.RoleUser, resp.User.Role)
	// The hash never leaves the server
	assert.Empty(t, resp.User.PasswordHash)

	user, _, err := env.auth.VerifyAccessToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct-horse",
		Name:     "Reader",
	})
	require.NoError(t, err)

	// Same address in different case is still a duplicate
	_, err = env.auth.Register(ctx, RegisterRequest{
		Email:    "Reader@Example.com",
		Password: "correct-horse",
		Name:     "Imposter",
	})
	require.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestRegister_ValidationFails(t *testing.T) {
	env := setupServiceTest(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Name:     "",
	})
	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLogin(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct-horse",
		Name:     "Reader",
	})
	require.NoError(t, err)

	resp, err := env.auth.Login(ctx, LoginRequest{
		Email:    "reader@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.PasswordHash)
	assert.False(t, resp.User.LastLoginAt.IsZero())
}

func TestLogin_WrongPassword(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct-horse",
		Name:     "Reader",
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{
		Email:    "reader@example.com",
		Password: "wrong-horse",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := setupServiceTest(t)

	_, err := env.auth.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	// Same error as a wrong password, so the response doesn't reveal
	// which addresses are registered.
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestVerifyAccessToken_DeletedUser(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct-horse",
		Name:     "Reader",
	})
	require.NoError(t, err)

	require.NoError(t, env.store.Users.Delete(ctx, resp.User.ID))

	_, _, err = env.auth.VerifyAccessToken(ctx, resp.Token)
	require.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestMe(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@example.com",
		Password: "correct-horse",
		Name:     "Reader",
	})
	require.NoError(t, err)

	user, err := env.auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = env.auth.Me(ctx, "user-missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}
