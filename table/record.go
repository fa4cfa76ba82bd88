package table

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-openapi/inflect"

	"github.com/syssam/syphon/dialect/sql"
)

// record maps the exported fields of a struct type to table columns.
type record struct {
	typ     reflect.Type
	columns []string
	fields  []int // field index of each column
}

// recordOf reads the columns of T from its `db` struct tags in field order.
// Untagged fields use the snake-cased field name and `db:"-"` skips a field.
func recordOf[T any]() (*record, error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record type %v is not a struct", typ)
	}
	r := &record{typ: typ}
	seen := make(map[string]bool)
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("db")
		switch name {
		case "-":
			continue
		case "":
			name = inflect.Underscore(f.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("record type %v: duplicate column %q", typ, name)
		}
		seen[name] = true
		r.columns = append(r.columns, name)
		r.fields = append(r.fields, i)
	}
	if len(r.columns) == 0 {
		return nil, errors.New("record type " + typ.String() + " has no columns")
	}
	return r, nil
}

// tableName returns the default table name of the record, e.g. "game_odds" for GameOdds.
func (r *record) tableName() string {
	return inflect.Underscore(r.typ.Name())
}

// row returns v as an ordered row.
func (r *record) row(v any) *sql.Row {
	rv := reflect.Indirect(reflect.ValueOf(v))
	row := sql.NewRow()
	for i, c := range r.columns {
		row.Set(c, rv.Field(r.fields[i]).Interface())
	}
	return row
}

// scanTargets returns pointers to the column fields of the struct pointed to by ptr.
func (r *record) scanTargets(ptr any) []any {
	rv := reflect.ValueOf(ptr).Elem()
	targets := make([]any, len(r.fields))
	for i, idx := range r.fields {
		targets[i] = rv.Field(idx).Addr().Interface()
	}
	return targets
}
