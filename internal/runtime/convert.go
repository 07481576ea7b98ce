package runtime

import (
	"fmt"

	"github.com/risor-io/risor/object"
)

// Row is one record emitted by a script. Values are float64, int64, string,
// bool or nil.
type Row map[string]any

// Float returns the numeric value at key, converting ints.
func (r Row) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns the integer value at key, truncating floats.
func (r Row) Int(key string) int {
	switch v := r[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Text returns the string value at key, or "" if it is not a string.
func (r Row) Text(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func toFloat(obj object.Object) (float64, bool) {
	switch v := obj.(type) {
	case *object.Float:
		return v.Value(), true
	case *object.Int:
		return float64(v.Value()), true
	}
	return 0, false
}

// toGo converts a scalar Risor value. Other values are rendered with
// Inspect.
func toGo(obj object.Object) any {
	switch v := obj.(type) {
	case *object.Float:
		return v.Value()
	case *object.Int:
		return v.Value()
	case *object.String:
		return v.Value()
	case *object.Bool:
		return v.Value()
	case *object.NilType:
		return nil
	}
	return obj.Inspect()
}
