package leaveerrors

import (
	"net/http"

	"go-ems/internal/shared/apperror"
)

var (
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"leave type must be one of WFH, On Duty, Privilege, Casual, Maternity",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"end_date must be on or after start_date",
		http.StatusBadRequest,
	)
	ErrInvalidReason = apperror.New(
		apperror.CodeInvalidInput,
		"reason must be between 10 and 500 characters",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be accept or reject",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"leave is no longer pending",
		http.StatusConflict,
	)
	ErrTooLate = apperror.New(
		apperror.CodeTooLate,
		"only leave starting after today can be cancelled",
		http.StatusConflict,
	)
	ErrVersionConflict = apperror.New(
		apperror.CodeConflict,
		"leave was modified concurrently, reload and retry",
		http.StatusConflict,
	)
	ErrDuplicateLeave = apperror.New(
		apperror.CodeConflict,
		"leave with the same id already exists",
		http.StatusConflict,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"you can only manage your own leave",
		http.StatusForbidden,
	)
)
