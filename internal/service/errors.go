package service

import (
	"errors"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/repository"
)

// repoErr maps a repository error onto the AppError a handler should render.
// ErrNotFound becomes notFound; anything else is an internal error.
func repoErr(err error, notFound *apperr.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Wrap(notFound, err)
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Wrap(apperr.ErrInternal, err)
}

func invalid(msg string) error {
	return apperr.WithMessage(apperr.ErrInvalidInput, msg)
}
