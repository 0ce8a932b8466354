package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/taskboard/internal/auth"
	"github.com/spec-kit/taskboard/internal/config"
	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/repository"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

// AuthService issues access tokens for users.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	return &AuthService{users: users, tokenMgr: tokens, bcryptCost: cfg.BcryptCost}
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err, "user", nil)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// EnsureAdmin creates a super admin with the given credentials unless a user
// with that email already exists. It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, false, apperrors.NewValidationError("admin email and password are required", nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.MapError(err, "user", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, false, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleSuperAdmin},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, apperrors.MapError(err, "user", nil)
	}
	return user, true, nil
}
