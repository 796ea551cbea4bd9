package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// notFound folds "no row" and "wrong tenant" into a single ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireMember(scope repository.Scope) error {
	if !scope.Valid() || !models.IsKnownRole(scope.Role) {
		return ErrForbidden
	}
	return nil
}

func requireRole(scope repository.Scope, roles ...string) error {
	if err := requireMember(scope); err != nil {
		return err
	}
	for _, role := range roles {
		if scope.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
