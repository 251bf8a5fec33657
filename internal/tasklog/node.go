package tasklog

import (
	"reflect"
)

// Node is one entry of a raw task forest: either a Record or Malformed.
type Node interface {
	node()
}

// Record is an object-shaped entry. Its fields are untrusted.
type Record map[string]any

// Malformed is an entry that is not an object (null, number, string, bool).
// It produces no output and its contents are never walked.
type Malformed struct {
	Value any
}

func (Record) node()    {}
func (Malformed) node() {}

// Classify turns a decoded JSON value into a Node.
//
// Sequences are objects too in the stored data model, so an array entry is
// classified as a Record with no named fields rather than as garbage.
func Classify(v any) Node {
	switch x := v.(type) {
	case nil:
		return Malformed{}
	case map[string]any:
		if x == nil {
			return Malformed{Value: v}
		}
		return Record(x)
	case Record:
		if x == nil {
			return Malformed{Value: v}
		}
		return x
	case []any:
		return Record{}
	case string, bool, float64, int, int64:
		return Malformed{Value: v}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Malformed{Value: v}
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return Malformed{Value: v}
		}
		rec := make(Record, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			rec[iter.Key().String()] = iter.Value().Interface()
		}
		return rec
	case reflect.Slice, reflect.Array:
		return Record{}
	default:
		return Malformed{Value: v}
	}
}

// sequence returns the elements of v when v is an ordered sequence.
func sequence(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case []any:
		return x, true
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	case []Record:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	case string, []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
