package service

import (
	"context"
	"strings"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// UserService manages back-office accounts on behalf of administrators.
type UserService struct {
	users      repository.UserRepository
	auth       *AuthService
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, authService *AuthService, bcryptCost int) *UserService {
	return &UserService{users: users, auth: authService, bcryptCost: bcryptCost}
}

// List returns the profiles matching filter.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.Profile, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	out := make([]domain.Profile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Profile())
	}
	return out, nil
}

// Get returns one profile.
func (s *UserService) Get(ctx context.Context, id int64) (domain.Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.Profile{}, repoError("user", id, err)
	}
	return user.Profile(), nil
}

// Create adds an account. Accounts are enabled unless the request says otherwise.
func (s *UserService) Create(ctx context.Context, req dto.UserRequest) (domain.Profile, error) {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	user, err := s.auth.createUser(ctx, req.Username, req.Email, req.Password, req.Role, enabled)
	if err != nil {
		return domain.Profile{}, err
	}
	return user.Profile(), nil
}

// Update applies the non-empty fields of req.
func (s *UserService) Update(ctx context.Context, id int64, req dto.UserRequest) (domain.Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.Profile{}, repoError("user", id, err)
	}
	if name := strings.TrimSpace(req.Username); name != "" {
		user.Username = name
	}
	if req.Email != "" {
		user.Email = strings.TrimSpace(req.Email)
	}
	if req.Role != "" {
		if !req.Role.Valid() {
			return domain.Profile{}, apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
		}
		user.Role = req.Role
	}
	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}
	if req.Password != "" {
		if len(req.Password) < minPasswordLength {
			return domain.Profile{}, apperrors.NewValidationError("password must be at least 6 characters", nil)
		}
		hash, err := auth.HashPassword(req.Password, s.bcryptCost)
		if err != nil {
			return domain.Profile{}, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return domain.Profile{}, repoError("user", id, err)
	}
	return user.Profile(), nil
}

// Delete removes an account. Operators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}
	return repoError("user", id, s.users.Delete(ctx, id))
}
