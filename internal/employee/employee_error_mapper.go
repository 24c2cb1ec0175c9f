package employee

import (
	"errors"

	employeeerrors "go-ems/internal/employee/errors"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/docstore"
)

func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return employeeerrors.ErrEmployeeNotFound
	case errors.Is(err, docstore.ErrDuplicate):
		return employeeerrors.ErrEmployeeAlreadyExists
	default:
		return apperror.StoreUnavailable(err)
	}
}
