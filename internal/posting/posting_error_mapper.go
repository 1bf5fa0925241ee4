package posting

import (
	"errors"

	postingerrors "go-schoolops/internal/posting/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const currentPostingIndex = "uq_postings_employee_current"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return postingerrors.ErrPostingNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == currentPostingIndex {
		return postingerrors.ErrConcurrentPosting
	}

	return err
}

// mapLookupError turns a missing referenced row into the given not-found error.
func mapLookupError(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
