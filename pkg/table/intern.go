package table

// InternTable indexes interned strings by content (hash.Chars), so
// looking up a candidate string's canonical ObjString is a single probe
// rather than a scan — and lets pkg/heap's weak sweep walk every live
// entry and drop the ones whose value object didn't survive the last mark
// phase. Presence is all that matters; entries whose values go unmarked
// during a collection are removed afterward.
type InternTable[V any] struct {
	t *Table[string, V]
}

// NewInternTable returns an intern table with initial capacity for at
// least size entries.
func NewInternTable[V any](size int) *InternTable[V] {
	return &InternTable[V]{t: New[string, V](size)}
}

// Get returns the interned value for chars, if any.
func (it *InternTable[V]) Get(chars string) (V, bool) {
	return it.t.Get(chars)
}

// Put interns value under chars.
func (it *InternTable[V]) Put(chars string, val V) {
	it.t.Set(chars, val)
}

// Delete removes the entry for chars.
func (it *InternTable[V]) Delete(chars string) {
	it.t.Delete(chars)
}

// Len returns the number of interned entries.
func (it *InternTable[V]) Len() int { return it.t.Len() }

// Each calls fn once per (chars, value) entry.
func (it *InternTable[V]) Each(fn func(chars string, val V) bool) {
	it.t.Each(fn)
}
