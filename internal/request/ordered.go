package request

import (
	"iter"
	"slices"
)

// Ordered is a map that remembers insertion order. Re-setting an existing key
// keeps its position. The zero value is ready to use.
type Ordered[V any] struct {
	keys   []string
	values map[string]V
}

// Set stores v under key.
func (o *Ordered[V]) Set(key string, v V) {
	if o.values == nil {
		o.values = make(map[string]V)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Ordered[V]) Get(key string) (V, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Ordered[V]) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Delete removes key. Missing keys are ignored.
func (o *Ordered[V]) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
}

// Len returns the number of entries.
func (o *Ordered[V]) Len() int {
	return len(o.keys)
}

// Keys returns a copy of the keys in insertion order.
func (o *Ordered[V]) Keys() []string {
	return slices.Clone(o.keys)
}

// All iterates entries in insertion order.
func (o *Ordered[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.values[k]) {
				return
			}
		}
	}
}

// Clear removes every entry.
func (o *Ordered[V]) Clear() {
	o.keys = nil
	o.values = nil
}

// Clone returns a shallow copy.
func (o *Ordered[V]) Clone() Ordered[V] {
	var c Ordered[V]
	for k, v := range o.All() {
		c.Set(k, v)
	}
	return c
}
