package document

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Serializable is implemented by values that write themselves as a
// sub-document. ToMap calls ToDocument for every field holding one.
type Serializable interface {
	ToDocument() (map[string]any, error)
}

// Deserializable is implemented by pointers to values that read themselves
// from a sub-document. FromMap calls FromDocument for every field whose
// pointer type implements it.
type Deserializable interface {
	FromDocument(map[string]any) error
}

// Parser builds a sub-document value from its stored form.
type Parser func(map[string]any) (any, error)

// Registry maps Go type names to the parsers of their sub-documents.
// A field whose type name (or pointed-to type name) is registered is
// loaded with the registered parser instead of the bson decoder.
type Registry map[string]Parser

// Register registers parse under the name of S.
func Register[S any](r Registry, parse func(map[string]any) (S, error)) {
	r[reflect.TypeFor[S]().Name()] = func(m map[string]any) (any, error) {
		return parse(m)
	}
}

var (
	serializableType   = reflect.TypeFor[Serializable]()
	deserializableType = reflect.TypeFor[Deserializable]()
)

// field is a document key bound to a struct field.
type field struct {
	key   string
	index int
	typ   reflect.Type
}

// fieldsOf returns the document fields of struct type t. Keys follow the
// bson rules: the tag name when set, the lower-cased field name otherwise.
func fieldsOf(t reflect.Type) []field {
	var fields []field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key, _, _ := strings.Cut(f.Tag.Get("bson"), ",")
		switch key {
		case "-":
			continue
		case "":
			key = strings.ToLower(f.Name)
		}
		fields = append(fields, field{key: key, index: i, typ: f.Type})
	}
	return fields
}

// Keys returns the document keys of T in field order.
func Keys[T any]() []string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	fields := fieldsOf(t)
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// ToMap returns the fields of the struct doc as a document. Nil fields are
// dropped unless keepNils is set, and Serializable fields are replaced by
// their sub-documents.
func ToMap(doc any, keepNils bool) (bson.M, error) {
	rv := reflect.ValueOf(doc)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.New("document: nil document")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("document: %T is not a struct", doc)
	}
	m := make(bson.M)
	for _, f := range fieldsOf(rv.Type()) {
		fv := rv.Field(f.index)
		if isNil(fv) {
			if keepNils {
				m[f.key] = nil
			}
			continue
		}
		if s, ok := serializable(fv); ok {
			sub, err := s.ToDocument()
			if err != nil {
				return nil, fmt.Errorf("document: field %q: %w", f.key, err)
			}
			m[f.key] = sub
			continue
		}
		m[f.key] = fv.Interface()
	}
	return m, nil
}

// FromMap decodes m into a T. Fields whose type is in reg, or whose
// pointer type is Deserializable, are loaded from their sub-documents.
// Keys of m that match no field, such as _id, are ignored.
func FromMap[T any](m map[string]any, reg Registry) (T, error) {
	var v T
	rv := reflect.ValueOf(&v).Elem()
	if rv.Kind() != reflect.Struct {
		return v, fmt.Errorf("document: %T is not a struct", v)
	}
	rest := make(bson.M, len(m))
	for k, val := range m {
		rest[k] = val
	}
	type pending struct {
		field
		sub map[string]any
	}
	var subs []pending
	for _, f := range fieldsOf(rv.Type()) {
		if !isSubDocument(f.typ, reg) {
			continue
		}
		raw, ok := rest[f.key]
		delete(rest, f.key)
		if !ok || raw == nil {
			continue
		}
		sub, ok := asMap(raw)
		if !ok {
			return v, fmt.Errorf("document: field %q: expected a sub-document, got %T", f.key, raw)
		}
		subs = append(subs, pending{f, sub})
	}
	data, err := bson.Marshal(rest)
	if err != nil {
		return v, fmt.Errorf("document: marshal: %w", err)
	}
	if err := bson.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("document: decode %T: %w", v, err)
	}
	for _, p := range subs {
		val, err := loadSubDocument(p.typ, p.sub, reg)
		if err != nil {
			return v, fmt.Errorf("document: field %q: %w", p.key, err)
		}
		rv.Field(p.index).Set(val)
	}
	return v, nil
}

// isSubDocument reports whether values of t are loaded from sub-documents.
func isSubDocument(t reflect.Type, reg Registry) bool {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if _, ok := reg[base.Name()]; ok && base.Name() != "" {
		return true
	}
	return reflect.PointerTo(base).Implements(deserializableType)
}

// loadSubDocument returns sub loaded as a value assignable to t.
func loadSubDocument(t reflect.Type, sub map[string]any, reg Registry) (reflect.Value, error) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	var loaded reflect.Value
	if parse, ok := reg[base.Name()]; ok && base.Name() != "" {
		parsed, err := parse(sub)
		if err != nil {
			return reflect.Value{}, err
		}
		loaded = reflect.ValueOf(parsed)
		if !loaded.IsValid() {
			return reflect.Zero(t), nil
		}
	} else {
		p := reflect.New(base)
		if err := p.Interface().(Deserializable).FromDocument(sub); err != nil {
			return reflect.Value{}, err
		}
		loaded = p
	}
	switch {
	case loaded.Type().AssignableTo(t):
		return loaded, nil
	case t.Kind() == reflect.Pointer && loaded.Type().AssignableTo(base):
		p := reflect.New(base)
		p.Elem().Set(loaded)
		return p, nil
	case loaded.Kind() == reflect.Pointer && !loaded.IsNil() && loaded.Elem().Type().AssignableTo(t):
		return loaded.Elem(), nil
	}
	return reflect.Value{}, fmt.Errorf("parsed %v is not assignable to %v", loaded.Type(), t)
}

// serializable returns the Serializable implemented by v or by a pointer to a copy of v.
func serializable(v reflect.Value) (Serializable, bool) {
	if v.Type().Implements(serializableType) {
		return v.Interface().(Serializable), true
	}
	if v.Kind() != reflect.Pointer && reflect.PointerTo(v.Type()).Implements(serializableType) {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p.Interface().(Serializable), true
	}
	return nil, false
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// asMap returns v as a map when it holds a document.
func asMap(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case bson.M:
		return v, true
	case bson.D:
		m := make(map[string]any, len(v))
		for _, e := range v {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}
