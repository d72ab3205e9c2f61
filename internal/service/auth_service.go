package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/factoryops/maintenance-service/internal/auth"
	"github.com/factoryops/maintenance-service/internal/config"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/repository"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// AuthService manages accounts and credentials.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, cfg config.AuthConfig) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg}
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Login    string
	Password string
	Name     string
	Role     domain.UserRole
}

// LoginResult carries the issued token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account with a hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	login := strings.ToLower(strings.TrimSpace(input.Login))
	if login == "" {
		return nil, apperrors.NewValidationError("login required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}

	existing, err := s.users.GetByLogin(ctx, login)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("login already taken", map[string]any{"login": login})
	}

	hashed, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Login:        login,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login verifies the credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ChangePassword rotates a user's password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return apperrors.NewUnauthorized("current password incorrect")
	}

	hashed, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hashed
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListUsers exposes directory lookups for assignment pickers.
func (s *AuthService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// TokenManager exposes the token verifier for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
