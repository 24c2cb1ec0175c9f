package leave

import (
	"errors"

	leaveerrors "go-ems/internal/leave/errors"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/docstore"
)

// mapRepositoryError turns docstore sentinels into catalogue errors;
// notFound picks the message for a missing document or record. Anything
// else is a store failure.
func mapRepositoryError(err error, notFound *apperror.AppError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return notFound
	case errors.Is(err, docstore.ErrConflict), errors.Is(err, docstore.ErrDuplicate):
		return leaveerrors.ErrDuplicateLeave
	default:
		return apperror.StoreUnavailable(err)
	}
}
