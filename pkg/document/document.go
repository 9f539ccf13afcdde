// Package document holds the generic tree a training configuration is read
// into: ordered mappings of string keys, sequences ([]any) and scalars.
//
// Mappings keep the order in which keys appear in the source document so
// that rules depending on traversal order stay deterministic.
package document

import (
	"fmt"
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an insertion-ordered mapping. Setting an existing key keeps its
// position; new keys are appended.
type Map = orderedmap.OrderedMap[string, any]

// NewMap returns an empty Map.
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// MapOf builds a Map from alternating keys and values, in order.
// Nested map[string]any and []any values are converted with FromGo.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("document.MapOf: odd number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("document.MapOf: key %v is not a string", kv[i]))
		}
		m.Set(key, FromGo(kv[i+1]))
	}
	return m
}

// Keys returns the keys of m in order.
func Keys(m *Map) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Has reports whether key is present in m, whatever its value.
func Has(m *Map, key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Get(key)
	return ok
}

// Value returns the value stored under key, or nil.
func Value(m *Map, key string) any {
	if m == nil {
		return nil
	}
	v, _ := m.Get(key)
	return v
}

// AsMap returns v as a *Map when it is one.
func AsMap(v any) (*Map, bool) {
	m, ok := v.(*Map)
	return m, ok && m != nil
}

// FromGo converts plain Go values into the document representation.
// map[string]any becomes a Map with keys in sorted order, since Go maps
// carry no order of their own. Other values are returned unchanged.
func FromGo(v any) any {
	switch val := v.(type) {
	case *Map:
		return val
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromGo(val[k]))
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = FromGo(item)
		}
		return out
	default:
		return v
	}
}

// ToGo converts a document value into plain Go maps and slices.
func ToGo(v any) any {
	switch val := v.(type) {
	case *Map:
		if val == nil {
			return nil
		}
		out := make(map[string]any, val.Len())
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToGo(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToGo(item)
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of a document value. Mappings and sequences are
// copied; scalars are immutable and shared.
func Clone(v any) any {
	switch val := v.(type) {
	case *Map:
		if val == nil {
			return (*Map)(nil)
		}
		out := NewMap()
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Clone(pair.Value))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// CloneMap is Clone for a top-level mapping.
func CloneMap(m *Map) *Map {
	if m == nil {
		return NewMap()
	}
	out, _ := Clone(m).(*Map)
	return out
}

// Truthy reports whether v counts as set: nil, false, zero numbers, empty
// strings and empty collections do not.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case *Map:
		return val != nil && val.Len() > 0
	case []any:
		return len(val) > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
