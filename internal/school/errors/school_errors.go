package schoolerrors

import (
	"go-schoolops/internal/shared/apperror"
	"net/http"
)

var (
	ErrSchoolNotFound = apperror.New(
		apperror.CodeNotFound,
		"School not found",
		http.StatusNotFound,
	)
	ErrSchoolInactive = apperror.New(
		apperror.CodeInvalidState,
		"School is inactive",
		http.StatusConflict,
	)
	ErrSchoolCodeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"School code already exists",
		http.StatusConflict,
	)
	ErrInvalidSchoolID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid school ID",
		http.StatusBadRequest,
	)
)
