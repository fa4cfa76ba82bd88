package sql

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the layout of timestamp literals (microsecond precision).
const TimeLayout = "2006-01-02 15:04:05.000000"

// CurrentTimestamp is the type of Now.
type CurrentTimestamp struct{}

// Now renders as the SQL now() call wherever a value is encoded.
// Prefer it over the "now" string filter value, which cannot be told
// apart from a real "now" string.
var Now = CurrentTimestamp{}

// Encode converts a Go value into a PostgreSQL literal.
//
// Encoding rules, in order:
//
//   - nil, nil pointers, NaN and invalid driver.Valuer results render as null.
//   - TypedArray values render with their typed empty-array cast when empty.
//   - Other slices and arrays render as ARRAY[...] with each element encoded.
//     An empty one renders as ARRAY[] without a cast, which PostgreSQL rejects;
//     use a TypedArray for arrays that may be empty.
//   - Strings are single-quoted with embedded quotes doubled. Nothing else is escaped.
//   - time.Time renders as 'YYYY-MM-DD HH:MM:SS.ffffff'.
//   - []byte renders as a hex bytea literal.
//   - Booleans and numbers render unquoted.
//
// Maps, structs and other composite kinds return an *UnsupportedValueError.
func Encode(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "null", nil
	}
	switch v := v.(type) {
	case CurrentTimestamp:
		return "now()", nil
	case TypedArray:
		return v.Literal(), nil
	case string:
		return quoteString(v), nil
	case []byte:
		if v == nil {
			return "null", nil
		}
		return byteaLiteral(v), nil
	case time.Time:
		return quoteString(v.Format(TimeLayout)), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float32:
		return encodeFloat(float64(v), 32), nil
	case float64:
		return encodeFloat(v, 64), nil
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return "", fmt.Errorf("dialect/sql: encode %T: %w", v, err)
		}
		if dv != nil && reflect.TypeOf(dv) == reflect.TypeOf(v) {
			return "", &UnsupportedValueError{Type: reflect.TypeOf(v)}
		}
		return Encode(dv)
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return Encode(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return encodeFloat(rv.Float(), rv.Type().Bits()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.String:
		return quoteString(rv.String()), nil
	case reflect.Slice:
		if rv.IsNil() {
			return "null", nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return byteaLiteral(rv.Bytes()), nil
		}
		return encodeSequence(rv)
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return byteaLiteral(b), nil
		}
		return encodeSequence(rv)
	}
	return "", &UnsupportedValueError{Type: rv.Type()}
}

// EncodeAll encodes each value in order.
func EncodeAll(values []any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		s, err := Encode(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// encodeSequence renders a generic sequence as ARRAY[...].
func encodeSequence(rv reflect.Value) (string, error) {
	elems := make([]string, rv.Len())
	for i := range elems {
		s, err := Encode(rv.Index(i).Interface())
		if err != nil {
			return "", err
		}
		elems[i] = s
	}
	return arrayLiteral(elems), nil
}

// quoteString single-quotes s and doubles every single quote inside it.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func encodeFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "null"
	case math.IsInf(f, 1):
		return "'Infinity'"
	case math.IsInf(f, -1):
		return "'-Infinity'"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func formatFloat(f float64) string {
	return encodeFloat(f, 64)
}

// byteaLiteral renders b in the bytea hex format, e.g. '\xdeadbeef'::bytea.
func byteaLiteral(b []byte) string {
	return FixDoubledBackslashes(`'\x` + hex.EncodeToString(b) + `'::bytea`)
}

// FixDoubledBackslashes collapses doubled backslashes when they make up the
// majority of the backslashes in s: more doubled occurrences than a third of
// all single-backslash occurrences. Some binary escapers double every
// backslash of the escape format; the hex format produced by Encode has a
// single backslash and is returned unchanged.
func FixDoubledBackslashes(s string) string {
	single := strings.Count(s, `\`)
	double := strings.Count(s, `\\`)
	if float64(double) > float64(single)/3 {
		return strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}
