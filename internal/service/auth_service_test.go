package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

func newAuthFixture(t *testing.T, dbName string) AuthService {
	t.Helper()

	db := openTestDB(t, dbName)
	mr := miniredis.RunT(t)
	sessions := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return NewAuthService(repository.NewUserRepository(db), sessions, AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, testValidator(), testLogger())
}

func registerPayload(email, role string) dto.RegisterRequest {
	return dto.RegisterRequest{
		Name:            "Test User",
		Email:           email,
		Password:        "super-secret-pw",
		ConfirmPassword: "super-secret-pw",
		Role:            role,
	}
}

func TestRegisterDefaultsRoleAndHashesPassword(t *testing.T) {
	svc := newAuthFixture(t, "auth_register")
	ctx := context.Background()

	response, err := svc.Register(ctx, registerPayload("alice@test.local", ""))
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, response.User.Role)
	assert.NotEmpty(t, response.Tokens.AccessToken)
	assert.NotEmpty(t, response.Tokens.RefreshToken)

	token, err := jwt.Parse(response.Tokens.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("unit-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "student", claims["role"])

	_, err = svc.Register(ctx, registerPayload("alice@test.local", ""))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc := newAuthFixture(t, "auth_login")
	ctx := context.Background()

	_, err := svc.Register(ctx, registerPayload("bob@test.local", models.RoleInstructor))
	require.NoError(t, err)

	response, err := svc.Login(ctx, dto.LoginRequest{Email: "bob@test.local", Password: "super-secret-pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, response.User.Role)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "bob@test.local", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@test.local", Password: "super-secret-pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesTheToken(t *testing.T) {
	svc := newAuthFixture(t, "auth_refresh")
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerPayload("carol@test.local", ""))
	require.NoError(t, err)

	first := registered.Tokens.RefreshToken
	rotated, err := svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: first})
	require.NoError(t, err)
	assert.NotEqual(t, first, rotated.RefreshToken)

	// The consumed token is gone; replaying it must fail.
	_, err = svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: first})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: rotated.RefreshToken})
	require.NoError(t, err)
}

func TestDisabledAccountCannotLoginOrRefresh(t *testing.T) {
	db := openTestDB(t, "auth_disabled")
	mr := miniredis.RunT(t)
	sessions := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewAuthService(repository.NewUserRepository(db), sessions, AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, testValidator(), testLogger())
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerPayload("frank@test.local", ""))
	require.NoError(t, err)

	err = db.Model(&models.User{}).
		Where("email = ?", "frank@test.local").
		Update("is_active", false).Error
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "frank@test.local", Password: "super-secret-pw"})
	assert.ErrorIs(t, err, ErrAccountDisabled)

	// A refresh token issued before deactivation must stop working too.
	_, err = svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: registered.Tokens.RefreshToken})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc := newAuthFixture(t, "auth_logout")
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerPayload("dave@test.local", ""))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.Tokens.RefreshToken))

	_, err = svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: registered.Tokens.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestUpdateProfileAppliesPartialChanges(t *testing.T) {
	svc := newAuthFixture(t, "auth_profile")
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerPayload("erin@test.local", ""))
	require.NoError(t, err)

	name := "Erin Updated"
	updated, err := svc.UpdateProfile(ctx, registered.User.ID, dto.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Erin Updated", updated.Name)
	assert.Equal(t, registered.User.Email, updated.Email)

	profile, err := svc.Profile(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Erin Updated", profile.Name)
}
