package employeeerrors

import (
	"net/http"

	"go-ems/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusConflict,
	)
	ErrInvalidEmail = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid email format",
		http.StatusBadRequest,
	)
	ErrAdminNotOnboardable = apperror.New(
		apperror.CodeInvalidInput,
		"Admin accounts cannot be onboarded as employees",
		http.StatusBadRequest,
	)
)
