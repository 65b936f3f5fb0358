package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dfryer1193/paper/posting/domain"
)

// SQLSTATE codes of the integrity constraint violation class.
const (
	sqlStateNotNull    = "23502"
	sqlStateForeignKey = "23503"
	sqlStateUnique     = "23505"
	sqlStateCheck      = "23514"
)

func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUnique:
			return &domain.ConstraintViolation{Constraint: domain.ConstraintUnique, Err: err}
		case sqlStateForeignKey:
			return &domain.ConstraintViolation{Constraint: domain.ConstraintForeignKey, Err: err}
		case sqlStateNotNull:
			return &domain.ConstraintViolation{Constraint: domain.ConstraintNotNull, Err: err}
		case sqlStateCheck:
			return &domain.ConstraintViolation{Constraint: domain.ConstraintCheck, Err: err}
		}
	}

	return domain.StorageError(op, err)
}
