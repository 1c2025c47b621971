package service

import (
	"context"
	"testing"

	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	user, access, refresh, err := services.Auth.Register(ctx, "Aoife Byrne", "aoife@test.ie", "password123", nil)
	require.NoError(t, err)
	assert.Equal(t, types.UserVolunteer, user.UserType)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, "password123", user.Password)

	// Duplicate email is rejected.
	_, _, _, err = services.Auth.Register(ctx, "Other", "aoife@test.ie", "password123", nil)
	assert.ErrorIs(t, err, ErrUserExists)

	loggedIn, _, _, err := services.Auth.Login(ctx, "aoife@test.ie", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, _, err = services.Auth.Login(ctx, "aoife@test.ie", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenRotates(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	_, _, refresh, err := services.Auth.Register(ctx, "Aoife Byrne", "aoife@test.ie", "password123", nil)
	require.NoError(t, err)

	access, newRefresh, err := services.Auth.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, refresh, newRefresh)

	// The old refresh token is single-use.
	_, _, err = services.Auth.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	user, access, _, err := services.Auth.Register(ctx, "Aoife Byrne", "aoife@test.ie", "password123", nil)
	require.NoError(t, err)

	token, err := services.Auth.ValidateToken(access)
	require.NoError(t, err)

	userID, err := services.Auth.GetUserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, err = services.Auth.ValidateToken("not.a.token")
	assert.Error(t, err)
}
