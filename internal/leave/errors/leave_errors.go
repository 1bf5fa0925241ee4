package leaveerrors

import (
	"net/http"

	"go-schoolops/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"Month must be 1-12 and year 2000 or later",
		http.StatusBadRequest,
	)
	ErrNegativeDays = apperror.New(
		apperror.CodeInvalidInput,
		"Leave days cannot be negative",
		http.StatusBadRequest,
	)
	ErrTooManyDays = apperror.New(
		apperror.CodeInvalidInput,
		"Paid and unpaid leave together cannot exceed 31 days",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrSchoolNotFound = apperror.New(
		apperror.CodeNotFound,
		"School not found",
		http.StatusNotFound,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave record not found",
		http.StatusNotFound,
	)
)
