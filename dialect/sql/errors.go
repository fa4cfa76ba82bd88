package sql

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrUnsupportedValue is returned when a value has no SQL literal form.
	ErrUnsupportedValue = errors.New("dialect/sql: unsupported value type")

	// ErrNoRows is returned when a multi-row statement is built from an empty row list.
	ErrNoRows = errors.New("dialect/sql: no rows to write")
)

// UnsupportedValueError is returned by Encode for values such as maps or structs.
type UnsupportedValueError struct {
	Type reflect.Type
}

// Error returns the error string.
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("dialect/sql: unsupported value type %v", e.Type)
}

// Is reports whether the target error matches ErrUnsupportedValue.
func (e *UnsupportedValueError) Is(err error) bool {
	return err == ErrUnsupportedValue
}

// StatementError reports a statement that cannot be built from its input.
type StatementError struct {
	Op  string // Statement kind, e.g. "upsert" or "update".
	Msg string
}

// Error returns the error string.
func (e *StatementError) Error() string {
	return fmt.Sprintf("dialect/sql: %s: %s", e.Op, e.Msg)
}

// IsStatementError returns true if the error is a StatementError.
func IsStatementError(err error) bool {
	var e *StatementError
	return errors.As(err, &e)
}

// errorCoder is an interface for database errors that provide error codes.
// Implemented by: pq.Error.
type errorCoder interface {
	Code() string
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgconn.PgError.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return hasCode(err, pgUniqueViolation,
		"violates unique constraint", // Postgres (string fallback)
		"UNIQUE constraint failed",   // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return hasCode(err, pgForeignKeyViolation,
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return hasCode(err, pgCheckViolation,
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
	)
}

// IsNumericOutOfRange reports if a value did not fit its numeric column,
// e.g. an integer literal larger than the column type.
func IsNumericOutOfRange(err error) bool {
	return hasCode(err, pgNumericOutOfRange, "out of range for type")
}

func hasCode(err error, code string, fallbacks ...string) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == code {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == code {
		return true
	}
	// Fallback to string matching for drivers that don't implement interfaces
	return containsAny(err.Error(), fallbacks...)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
