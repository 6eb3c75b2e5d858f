package service

import (
	"errors"

	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// repoError maps repository sentinels to domain errors for resource.
func repoError(resource string, id int64, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" already exists", nil)
	default:
		return apperrors.ToDomainError(err)
	}
}
