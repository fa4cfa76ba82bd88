package sql

import (
	"slices"
	"sort"
	"strings"
)

// Row is an ordered mapping from column name to value, one row to write.
// The zero value is an empty row ready to use.
type Row struct {
	columns []string
	values  []any
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{}
}

// RowFromMap builds a row from m. Columns are taken in the given order, or in
// sorted key order when no columns are given. Columns absent from m are set to nil.
func RowFromMap(m map[string]any, columns ...string) *Row {
	if len(columns) == 0 {
		columns = make([]string, 0, len(m))
		for k := range m {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	r := &Row{}
	for _, c := range columns {
		r.Set(c, m[c])
	}
	return r
}

// Set sets the value of column. A column that is already present keeps its position.
func (r *Row) Set(column string, value any) *Row {
	if i := slices.Index(r.columns, column); i >= 0 {
		r.values[i] = value
		return r
	}
	r.columns = append(r.columns, column)
	r.values = append(r.values, value)
	return r
}

// Get returns the value of column and whether it is present.
func (r *Row) Get(column string) (any, bool) {
	if i := slices.Index(r.columns, column); i >= 0 {
		return r.values[i], true
	}
	return nil, false
}

// Has reports whether column is present.
func (r *Row) Has(column string) bool {
	return slices.Contains(r.columns, column)
}

// Len returns the number of columns.
func (r *Row) Len() int { return len(r.columns) }

// Columns returns the column names in order.
func (r *Row) Columns() []string { return slices.Clone(r.columns) }

// Values returns the values in column order.
func (r *Row) Values() []any { return slices.Clone(r.values) }

// Map returns the row as an unordered map.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// PrimaryKey is the ordered set of columns identifying a row. An empty key
// means there is no conflict target.
type PrimaryKey []string

// Key returns a PrimaryKey of the given columns.
func Key(columns ...string) PrimaryKey {
	return PrimaryKey(columns)
}

// Contains reports whether column is part of the key.
func (pk PrimaryKey) Contains(column string) bool {
	return slices.Contains(pk, column)
}

// String returns the comma-separated key columns.
func (pk PrimaryKey) String() string {
	return strings.Join(pk, ", ")
}
