package invoiceerrors

import (
	"net/http"

	"go-schoolops/internal/shared/apperror"
)

var (
	ErrInvalidInvoiceID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid invoice ID",
		http.StatusBadRequest,
	)
	ErrInvalidSchoolID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid school ID",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"Month must be 1-12 and year 2000 or later",
		http.StatusBadRequest,
	)
	ErrInvalidPaymentAmount = apperror.New(
		apperror.CodeInvalidInput,
		"Payment amount must be greater than zero",
		http.StatusBadRequest,
	)
	ErrOverpayment = apperror.New(
		apperror.CodeInvalidInput,
		"Payment amount exceeds pending amount",
		http.StatusBadRequest,
	)
	ErrInvoiceNotFound = apperror.New(
		apperror.CodeNotFound,
		"Invoice not found",
		http.StatusNotFound,
	)
	ErrSchoolNotFound = apperror.New(
		apperror.CodeNotFound,
		"School not found",
		http.StatusNotFound,
	)
	ErrInvoiceSettled = apperror.New(
		apperror.CodeInvalidState,
		"Invoice is already paid",
		http.StatusConflict,
	)
	ErrInvoiceAlreadyExists = apperror.New(
		apperror.CodeDuplicate,
		"Invoice already exists for this school and period",
		http.StatusConflict,
	)
	ErrBatchRunning = apperror.New(
		apperror.CodeConflict,
		"Invoice batch is already running for this period",
		http.StatusConflict,
	)
)
