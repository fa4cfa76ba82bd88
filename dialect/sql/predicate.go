package sql

// Filter is a single "column operator value" condition of a SELECT.
// The operator is written verbatim and is not validated.
type Filter struct {
	Column string
	Op     string
	Value  any
}

// Cond returns a Filter with a caller-supplied operator.
func Cond(column, op string, value any) Filter {
	return Filter{Column: column, Op: op, Value: value}
}

// EQ returns a filter that checks if the column equals the given value.
func EQ(column string, value any) Filter {
	return Cond(column, "=", value)
}

// NEQ returns a filter that checks if the column does not equal the given value.
func NEQ(column string, value any) Filter {
	return Cond(column, "<>", value)
}

// GT returns a filter that checks if the column is greater than the given value.
func GT(column string, value any) Filter {
	return Cond(column, ">", value)
}

// GTE returns a filter that checks if the column is greater than or equal to the given value.
func GTE(column string, value any) Filter {
	return Cond(column, ">=", value)
}

// LT returns a filter that checks if the column is less than the given value.
func LT(column string, value any) Filter {
	return Cond(column, "<", value)
}

// LTE returns a filter that checks if the column is less than or equal to the given value.
func LTE(column string, value any) Filter {
	return Cond(column, "<=", value)
}

// Like returns a LIKE filter. The pattern is encoded as a string literal.
func Like(column, pattern string) Filter {
	return Cond(column, "LIKE", pattern)
}

// IsNull returns a filter that checks if the column is NULL.
func IsNull(column string) Filter {
	return Cond(column, "IS", nil)
}

// NotNull returns a filter that checks if the column is not NULL.
func NotNull(column string) Filter {
	return Cond(column, "IS NOT", nil)
}

// Any returns a filter that checks if the column equals any element of the array.
//
//	sql.Any("id", sql.IntArray{1, 2}) // id = ANY(ARRAY[1, 2])
func Any(column string, array TypedArray) Filter {
	return Cond(column, "= ANY", anyOf{array})
}

// anyOf renders its array wrapped in parentheses for the ANY operator.
type anyOf struct{ TypedArray }

// Literal implements TypedArray.
func (a anyOf) Literal() string { return "(" + a.TypedArray.Literal() + ")" }
