package syphon

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("syphon: record not found")

	// ErrColumnMismatch is returned when a table's columns differ from the record's.
	ErrColumnMismatch = errors.New("syphon: column mismatch")
)

// NotFoundError represents an error when a record is not found.
type NotFoundError struct {
	label  string
	filter any // Optional: the filter that matched nothing
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.filter != nil {
		return fmt.Sprintf("syphon: %s not found (filter=%v)", e.label, e.filter)
	}
	return fmt.Sprintf("syphon: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the collection or table name.
func (e *NotFoundError) Label() string {
	return e.label
}

// Filter returns the filter that was searched for, if available.
func (e *NotFoundError) Filter() any {
	return e.filter
}

// NewNotFoundError returns a new NotFoundError for the given collection or table.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithFilter returns a new NotFoundError with the filter that matched nothing.
func NewNotFoundErrorWithFilter(label string, filter any) *NotFoundError {
	return &NotFoundError{label: label, filter: filter}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigError reports an invalid or missing configuration value.
type ConfigError struct {
	Field string // Dotted field path, e.g. "postgres.host"
	Msg   string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("syphon: config %s: %s", e.Field, e.Msg)
}

// NewConfigError returns a new ConfigError.
func NewConfigError(field, msg string) *ConfigError {
	return &ConfigError{Field: field, Msg: msg}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// ColumnMismatchError is returned when the columns of a database table are
// not the columns of its record type, in the same order.
type ColumnMismatchError struct {
	Table    string
	Expected []string // Record columns
	Actual   []string // Table columns
}

// Error returns the error string.
func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("syphon: table %s has columns [%s], record has [%s]",
		e.Table, strings.Join(e.Actual, ", "), strings.Join(e.Expected, ", "))
}

// Is reports whether the target error matches ErrColumnMismatch.
func (e *ColumnMismatchError) Is(err error) bool {
	return err == ErrColumnMismatch
}

// IsColumnMismatch returns true if the error is a ColumnMismatchError.
func IsColumnMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *ColumnMismatchError
	return errors.As(err, &e) || errors.Is(err, ErrColumnMismatch)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("syphon: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError represents an invalid adapter configuration or record.
type ValidationError struct {
	Name string // Field or type name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("syphon: invalid %s: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "syphon: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("syphon: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a read error with additional context.
type QueryError struct {
	Entity string // Table or collection being read
	Op     string // Operation (e.g., "select", "find_one", "columns")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("syphon: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("syphon: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a write error with additional context.
type MutationError struct {
	Entity string // Table or collection being written
	Op     string // Operation (e.g., "upsert", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("syphon: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
