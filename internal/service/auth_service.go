package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrEmailTaken indicates an account already exists for the email.
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials covers both unknown email and wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidRefreshToken indicates an expired, revoked or malformed refresh
// token.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// ErrUserNotFound indicates the account was not located.
var ErrUserNotFound = errors.New("user not found")

// ErrAccountDisabled indicates the account was deactivated by an admin.
var ErrAccountDisabled = errors.New("account is disabled")

// AuthConfig carries token issuance parameters.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AuthService owns account registration, credentials and token rotation.
// Refresh tokens are opaque identifiers stored in Redis; rotation revokes
// the presented token before issuing its successor.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uint, payload dto.UpdateProfileRequest) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	sessions  *redis.Client
	cfg       AuthConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, sessions *redis.Client, cfg AuthConfig, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		sessions:  sessions,
		cfg:       cfg,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := models.User{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: string(hash),
		Role:     role,
		Bio:      payload.Bio,
		Avatar:   payload.Avatar,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("account registered")

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{User: dto.NewUserResponse(user), Tokens: tokens}, nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return dto.AuthResponse{}, ErrAccountDisabled
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{User: dto.NewUserResponse(user), Tokens: tokens}, nil
}

func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.TokenPair, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenPair{}, err
	}

	userID, err := s.consumeRefreshToken(ctx, payload.RefreshToken)
	if err != nil {
		return dto.TokenPair{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenPair{}, ErrInvalidRefreshToken
		}
		return dto.TokenPair{}, err
	}

	// Deactivation cuts the session short even inside the refresh window.
	if !user.IsActive {
		return dto.TokenPair{}, ErrAccountDisabled
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if s.sessions == nil || refreshToken == "" {
		return nil
	}

	return s.sessions.Del(ctx, refreshKey(refreshToken)).Err()
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, payload dto.UpdateProfileRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if payload.Name != nil {
		user.Name = *payload.Name
	}
	if payload.Bio != nil {
		user.Bio = *payload.Bio
	}
	if payload.Avatar != nil {
		user.Avatar = *payload.Avatar
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) issueTokens(ctx context.Context, user models.User) (dto.TokenPair, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.AccessTokenTTL).Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return dto.TokenPair{}, err
	}

	refresh := uuid.NewString()
	if s.sessions != nil {
		if err := s.sessions.Set(ctx, refreshKey(refresh), user.ID, s.cfg.RefreshTokenTTL).Err(); err != nil {
			return dto.TokenPair{}, err
		}
	}

	return dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// consumeRefreshToken resolves and revokes the token in one pass so a stolen
// token cannot be replayed after rotation.
func (s *authService) consumeRefreshToken(ctx context.Context, token string) (uint, error) {
	if s.sessions == nil {
		return 0, ErrInvalidRefreshToken
	}

	stored, err := s.sessions.GetDel(ctx, refreshKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, ErrInvalidRefreshToken
		}
		return 0, err
	}

	userID, err := strconv.ParseUint(stored, 10, 64)
	if err != nil {
		return 0, ErrInvalidRefreshToken
	}

	return uint(userID), nil
}

func refreshKey(token string) string {
	return fmt.Sprintf("auth:refresh:%s", token)
}
