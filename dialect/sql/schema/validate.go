package schema

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateColumns compares the columns of a database table with the columns
// a record expects. Missing and unexpected columns are errors, and so is a
// different order, since rows are read positionally.
//
// Example:
//
//	result := schema.ValidateColumns("odds", actual, []string{"id", "price"})
//	if result.HasErrors() {
//	    return fmt.Errorf("odds: %s", result)
//	}
func ValidateColumns(table string, actual, expected []string) *ValidationResult {
	result := &ValidationResult{}
	for _, c := range expected {
		if !slices.Contains(actual, c) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Column:  c,
				Message: "column missing from table",
			})
		}
	}
	for _, c := range actual {
		if !slices.Contains(expected, c) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Column:  c,
				Message: "unexpected column in table",
			})
		}
	}
	if !result.HasErrors() && !slices.Equal(actual, expected) {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   table,
			Message: fmt.Sprintf("columns in a different order: table has %v, record has %v", actual, expected),
		})
	}
	return result
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}

	if t.Name == "" {
		result.Errors = append(result.Errors, &ValidationError{
			Message: "table name cannot be empty",
		})
	}
	if len(t.Columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Message: "table has no columns",
		})
	}

	// Check for primary key
	if len(t.PrimaryKey) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}

	// Check for duplicate column names
	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true
		if c.Type == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "column has no type",
			})
		}
	}

	// Check that key columns exist
	for _, c := range t.PrimaryKey {
		if c == nil || !colNames[c.Name] {
			name := ""
			if c != nil {
				name = c.Name
			}
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("primary key references non-existent column %q", name),
			})
		}
	}

	return result
}
