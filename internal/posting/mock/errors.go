package mock

import "github.com/jackc/pgx/v5/pgconn"

// errDuplicateCurrent mimics the partial unique index on current postings.
var errDuplicateCurrent = &pgconn.PgError{Code: "23505", ConstraintName: "uq_postings_employee_current"}
