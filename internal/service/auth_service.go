package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/config"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

const minPasswordLength = 6

// DefaultRegistrationRole is granted when a registration names no role.
const DefaultRegistrationRole = domain.RoleKitchenStaff

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Login authenticates an operator and issues a token. Unknown users and wrong
// passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, username, password string) (dto.AuthResponse, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return dto.AuthResponse{}, apperrors.NewValidationError("username and password required", nil)
	}
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.AuthResponse{}, apperrors.NewUnauthorized(auth.ErrInvalidCredentials.Error())
		}
		return dto.AuthResponse{}, apperrors.ToDomainError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return dto.AuthResponse{}, apperrors.NewUnauthorized(err.Error())
	}
	if !user.Enabled {
		return dto.AuthResponse{}, apperrors.NewUnauthorized("account disabled")
	}

	token, _, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return dto.AuthResponse{}, apperrors.NewInternalError(err)
	}
	return dto.AuthResponse{Token: token, User: user.Profile()}, nil
}

// Register creates a new enabled account.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	role := req.Role
	if role == "" {
		role = DefaultRegistrationRole
	}
	return s.createUser(ctx, req.Username, req.Email, req.Password, role, true)
}

// EnsureUser creates the account unless the username exists. It seeds the
// development backend.
func (s *AuthService) EnsureUser(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.createUser(ctx, username, "", password, role, true)
}

func (s *AuthService) createUser(ctx context.Context, username, email, password string, role domain.Role, enabled bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewValidationError("username required", nil)
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         role,
		Enabled:      enabled,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
		}
		return nil, apperrors.ToDomainError(err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
// A wrong current password is a validation failure, not an authentication
// failure, so the caller's session survives it.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return repoError("user", userID, err)
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	if len(next) < minPasswordLength {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return repoError("user", userID, s.users.Update(ctx, user))
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
