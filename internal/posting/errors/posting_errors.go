package postingerrors

import (
	"go-schoolops/internal/shared/apperror"
	"net/http"
)

var (
	ErrPostingNotFound = apperror.New(
		apperror.CodeNotFound,
		"Posting not found",
		http.StatusNotFound,
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
	ErrInvalidPostingID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid posting ID",
		http.StatusBadRequest,
	)

	ErrSalaryRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Monthly billing salary is required and must be greater than 0",
		http.StatusBadRequest,
	)
	ErrInvalidTDSPercent = apperror.New(
		apperror.CodeInvalidInput,
		"TDS percent must be between 0 and 100",
		http.StatusBadRequest,
	)
	ErrInvalidGSTPercent = apperror.New(
		apperror.CodeInvalidInput,
		"GST percent must be between 0 and 100",
		http.StatusBadRequest,
	)
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"End date cannot be before start date",
		http.StatusBadRequest,
	)

	ErrSchoolInactive = apperror.New(
		apperror.CodeInvalidState,
		"School is inactive",
		http.StatusConflict,
	)
	ErrActivePostingExists = apperror.New(
		apperror.CodeInvalidState,
		"Employee already has active posting in this school",
		http.StatusConflict,
	)
	ErrAlreadyPostedHere = apperror.New(
		apperror.CodeInvalidState,
		"Employee is already posted to this school",
		http.StatusConflict,
	)
	ErrNotCurrentlyPosted = apperror.New(
		apperror.CodeInvalidState,
		"Employee is not currently posted to any school",
		http.StatusConflict,
	)
	ErrConcurrentPosting = apperror.New(
		apperror.CodeInvalidState,
		"Another current posting for this employee was saved concurrently",
		http.StatusConflict,
	)
)
