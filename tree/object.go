// Package tree defines the JSON-like data model consumed and produced by coil.
//
// A tree value is one of:
//   - nil, bool, string
//   - int64 (other Go integer kinds are accepted on input)
//   - float64 (float32 is accepted on input)
//   - *Object, an insertion-ordered string-keyed map
//   - map[string]any, visited in sorted key order
//   - []any
package tree

import (
	"iter"
	"slices"
)

// Object is a string-keyed map that remembers insertion order.
//
// Key order is kept for presentation; Equal ignores it.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty object with room for size keys.
func NewObject(size int) *Object {
	return &Object{
		keys:   make([]string, 0, size),
		values: make(map[string]any, size),
	}
}

// ObjectFromMap builds an object from m with keys in sorted order.
func ObjectFromMap(m map[string]any) *Object {
	obj := NewObject(len(m))
	for _, k := range SortedKeys(m) {
		obj.Set(k, m[k])
	}

	return obj
}

// Set stores v under key. Existing keys keep their position.
func (o *Object) Set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (o *Object) Keys() []string {
	return o.keys
}

// All iterates over key/value pairs in insertion order.
func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range o.keys {
			if !yield(k, o.values[k]) {
				return
			}
		}
	}
}

// Equal reports whether o and other hold the same keys mapped to equal values.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if len(o.keys) != len(other.keys) {
		return false
	}
	for k, v := range o.values {
		ov, ok := other.values[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}

	return true
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// AsObject returns v as an *Object when it is an object value.
func AsObject(v any) (*Object, bool) {
	switch x := v.(type) {
	case *Object:
		return x, x != nil
	case map[string]any:
		return ObjectFromMap(x), true
	default:
		return nil, false
	}
}

// Equal compares two tree values.
//
// Scalars must have the same primitive type: int64(1) and float64(1) differ.
// Integer kinds are compared by value, as are the two float kinds.
// Objects compare by key set, so *Object and map[string]any may be mixed.
func Equal(a, b any) bool {
	if ao, ok := AsObject(a); ok {
		bo, ok := AsObject(b)
		return ok && ao.Equal(bo)
	}

	if as, ok := a.([]any); ok {
		bs, ok := b.([]any)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !Equal(as[i], bs[i]) {
				return false
			}
		}

		return true
	}

	an, aok := Normalize(a)
	bn, bok := Normalize(b)
	if !aok || !bok {
		return false
	}

	return an == bn
}
