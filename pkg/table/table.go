// Package table implements the open-addressed hash table ember uses
// everywhere it needs a map keyed by an interned string: globals, instance
// fields, and class method tables.
//
// It is a thin generic wrapper over github.com/dolthub/swiss's open-
// addressing Robin-Hood-style map. The wrapper is generic rather than
// hardwired to *value.ObjString keys so that both pkg/value (class
// method/instance field tables) and pkg/vm (the globals table) can
// instantiate it without either package importing the other — table
// itself depends on neither.
package table

import "github.com/dolthub/swiss"

// Table is a hash table from K to V. K must be comparable. Globals, fields
// and methods instantiate it with a pointer-identity key (*value.ObjString),
// so their lookups are pointer compares; the string intern table (intern.go)
// is the one instance keyed by the string contents themselves.
type Table[K comparable, V any] struct {
	m *swiss.Map[K, V]
}

// New returns a table with initial capacity for at least size entries.
func New[K comparable, V any](size int) *Table[K, V] {
	if size < 1 {
		size = 8
	}
	return &Table[K, V]{m: swiss.NewMap[K, V](uint32(size))}
}

// Get returns the value stored for key, or the zero value and false if
// absent.
func (t *Table[K, V]) Get(key K) (V, bool) {
	return t.m.Get(key)
}

// Set stores value under key, overwriting any prior entry.
func (t *Table[K, V]) Set(key K, val V) {
	t.m.Put(key, val)
}

// Delete removes key, returning whether it was present.
func (t *Table[K, V]) Delete(key K) bool {
	return t.m.Delete(key)
}

// Has reports whether key is present.
func (t *Table[K, V]) Has(key K) bool {
	_, ok := t.m.Get(key)
	return ok
}

// Len returns the number of entries.
func (t *Table[K, V]) Len() int {
	return int(t.m.Count())
}

// Each calls fn once per entry. fn returning false stops iteration early;
// swiss.Map's Iter callback instead returns true to stop, so the result is
// inverted on the way through.
func (t *Table[K, V]) Each(fn func(key K, val V) bool) {
	t.m.Iter(func(key K, val V) bool { return !fn(key, val) })
}

// CopyInto copies every entry of t into dst, overwriting any existing
// entries dst already has for the same key. This is the hash-table
// primitive that implements copy-down inheritance: copying a superclass's
// whole method table into a subclass before the subclass's own methods
// are defined reduces method lookup to one table probe for the lifetime
// of the class.
func (t *Table[K, V]) CopyInto(dst *Table[K, V]) {
	t.Each(func(k K, v V) bool {
		dst.Set(k, v)
		return true
	})
}
