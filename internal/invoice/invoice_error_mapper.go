package invoice

import (
	"errors"

	invoiceerrors "go-schoolops/internal/invoice/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const constraintSchoolPeriod = "uq_invoices_school_period"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invoiceerrors.ErrInvoiceNotFound
	}
	if isPeriodViolation(err) {
		return invoiceerrors.ErrInvoiceAlreadyExists
	}
	return err
}

func isPeriodViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraintSchoolPeriod
}
