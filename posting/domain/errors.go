package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStorage marks failures of the storage backend that are neither
// validation nor constraint problems (connectivity, corruption, ...).
var ErrStorage = errors.New("storage failure")

// FieldViolation is a single failed field rule.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError carries every field rule a post failed. It is produced
// before any storage interaction.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// Constraint names reported by ConstraintViolation.
const (
	ConstraintUnique     = "unique"
	ConstraintForeignKey = "foreign_key"
	ConstraintNotNull    = "not_null"
	ConstraintCheck      = "check"
)

// ConstraintViolation is returned when the storage engine rejects a write
// because of a uniqueness, referential or nullability rule.
type ConstraintViolation struct {
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s constraint violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// StorageError wraps a backend failure so that errors.Is(err, ErrStorage) holds
// while the original error stays reachable.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
