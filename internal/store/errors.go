package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgNotNullViolation is the PostgreSQL error code for a NOT NULL violation.
const pgNotNullViolation = "23502"

// ValidationError reports an input record that violates the record shape
// invariant (missing required number value). Position is the zero-based index
// of the offending record in the caller's sequence.
type ValidationError struct {
	Position int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record at position %d: missing required number value", e.Position)
}

// StoreError reports that the store was unreachable or rejected an operation.
// No retry is performed; the caller decides what to do.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrapStoreErr wraps a driver error as a *StoreError, folding PostgreSQL
// constraint details into the operation name where available.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgNotNullViolation {
			op = fmt.Sprintf("%s (not-null violation on %s)", op, pgErr.ColumnName)
		} else {
			op = fmt.Sprintf("%s (sqlstate %s)", op, pgErr.Code)
		}
	}
	return &StoreError{Op: op, Err: err}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStore reports whether err is a *StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
