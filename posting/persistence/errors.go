package persistence

import (
	"errors"
	"strings"

	"github.com/dfryer1193/paper/posting/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// classifyError maps SQLite constraint failures to *domain.ConstraintViolation
// and everything else to a storage error.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	if constraint, ok := constraintOf(err); ok {
		return &domain.ConstraintViolation{Constraint: constraint, Err: err}
	}

	return domain.StorageError(op, err)
}

func constraintOf(err error) (string, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return "", false
	}

	code := sqliteErr.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}

	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return domain.ConstraintUnique, true
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return domain.ConstraintForeignKey, true
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return domain.ConstraintNotNull, true
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return domain.ConstraintCheck, true
	}

	// Connections without extended result codes only report SQLITE_CONSTRAINT.
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE"):
		return domain.ConstraintUnique, true
	case strings.Contains(msg, "FOREIGN KEY"):
		return domain.ConstraintForeignKey, true
	case strings.Contains(msg, "NOT NULL"):
		return domain.ConstraintNotNull, true
	default:
		return domain.ConstraintCheck, true
	}
}
