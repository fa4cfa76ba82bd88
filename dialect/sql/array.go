package sql

import (
	"database/sql/driver"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// TypedArray is an array column value that knows its SQL element type.
// Empty arrays render to a cast literal so PostgreSQL can infer the column type.
type TypedArray interface {
	// ElementType returns the SQL element type, e.g. "integer".
	ElementType() string
	// Len returns the number of elements.
	Len() int
	// Literal returns the SQL literal of the array.
	Literal() string
}

// IntArray is an integer[] column value.
type IntArray []int64

// RealArray is a real[] column value.
type RealArray []float64

// VarcharArray is a varchar[] column value.
type VarcharArray []string

var (
	_ TypedArray = IntArray(nil)
	_ TypedArray = RealArray(nil)
	_ TypedArray = VarcharArray(nil)
)

// ElementType implements TypedArray.
func (IntArray) ElementType() string { return "integer" }

// Len implements TypedArray.
func (a IntArray) Len() int { return len(a) }

// Literal implements TypedArray.
func (a IntArray) Literal() string {
	if len(a) == 0 {
		return emptyArray(a)
	}
	elems := make([]string, len(a))
	for i, v := range a {
		elems[i] = strconv.FormatInt(v, 10)
	}
	return arrayLiteral(elems)
}

// Scan implements the sql.Scanner interface.
func (a *IntArray) Scan(src any) error {
	var pa pq.Int64Array
	if err := pa.Scan(src); err != nil {
		return err
	}
	*a = IntArray(pa)
	return nil
}

// Value implements the driver.Valuer interface.
func (a IntArray) Value() (driver.Value, error) {
	return pq.Int64Array(a).Value()
}

// ElementType implements TypedArray.
func (RealArray) ElementType() string { return "real" }

// Len implements TypedArray.
func (a RealArray) Len() int { return len(a) }

// Literal implements TypedArray.
func (a RealArray) Literal() string {
	if len(a) == 0 {
		return emptyArray(a)
	}
	elems := make([]string, len(a))
	for i, v := range a {
		elems[i] = formatFloat(v)
	}
	return arrayLiteral(elems)
}

// Scan implements the sql.Scanner interface.
func (a *RealArray) Scan(src any) error {
	var pa pq.Float64Array
	if err := pa.Scan(src); err != nil {
		return err
	}
	*a = RealArray(pa)
	return nil
}

// Value implements the driver.Valuer interface.
func (a RealArray) Value() (driver.Value, error) {
	return pq.Float64Array(a).Value()
}

// ElementType implements TypedArray.
func (VarcharArray) ElementType() string { return "varchar" }

// Len implements TypedArray.
func (a VarcharArray) Len() int { return len(a) }

// Literal implements TypedArray.
func (a VarcharArray) Literal() string {
	if len(a) == 0 {
		return emptyArray(a)
	}
	elems := make([]string, len(a))
	for i, v := range a {
		elems[i] = quoteString(v)
	}
	return arrayLiteral(elems)
}

// Scan implements the sql.Scanner interface.
func (a *VarcharArray) Scan(src any) error {
	var pa pq.StringArray
	if err := pa.Scan(src); err != nil {
		return err
	}
	*a = VarcharArray(pa)
	return nil
}

// Value implements the driver.Valuer interface.
func (a VarcharArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

// emptyArray returns the typed empty-array literal, e.g. ARRAY[]::integer[].
func emptyArray(a TypedArray) string {
	return "ARRAY[]::" + a.ElementType() + "[]"
}

func arrayLiteral(elems []string) string {
	return "ARRAY[" + strings.Join(elems, ", ") + "]"
}
