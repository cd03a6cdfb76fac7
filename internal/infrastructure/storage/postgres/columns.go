package postgres

import (
	"reflect"
	"sync"
)

// Columns returns the "db" tag names of T, following embedded structs.
// Fields tagged "-" or untagged are skipped.
//
//	cols := Columns[items.Item]()
//	// ["id", "version", "created_at", ..., "code", "name", ...]
func Columns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	out := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		out = append(out, f.column)
	}
	return out
}

type column struct {
	index  []int
	column string
}

type typeMetadata struct {
	fields []column
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collect(t, nil, meta)
	}
	typeCache.Store(t, meta)
	return meta
}

func collect(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := range t.NumField() {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collect(field.Type, index, meta)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, column{index: index, column: tag})
	}
}

// ColumnMap returns the "db" tagged fields of v keyed by column name.
// v may be a struct or a pointer to one.
func ColumnMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataOf(rv.Type())
	out := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		out[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return out
}

// Without returns cols minus the excluded names.
func Without(cols []string, exclude ...string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, ok := skip[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Values returns the values of cols from a ColumnMap result, in order.
func Values(m map[string]any, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = m[c]
	}
	return out
}
