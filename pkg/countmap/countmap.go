// Package countmap implements a multiset delta over an arbitrary comparable
// timestamp type, with zero-cancellation and efficient draining.
package countmap

// CountMap is a mapping from T to a signed count, used to represent a batch
// of pointstamp deltas. An entry whose count settles at zero is removed
// immediately so len(m.counts) always reflects the number of times with a
// nonzero delta.
type CountMap[T comparable] struct {
	counts map[T]int64
}

// New returns an empty CountMap.
func New[T comparable]() *CountMap[T] {
	return &CountMap[T]{counts: make(map[T]int64)}
}

// Update adds delta to the count at t, removing the entry if the result is zero.
func (m *CountMap[T]) Update(t T, delta int64) {
	if m.counts == nil {
		m.counts = make(map[T]int64)
	}

	next := m.counts[t] + delta
	if next == 0 {
		delete(m.counts, t)
		return
	}

	m.counts[t] = next
}

// Pop removes and returns an arbitrary nonzero entry. ok is false when the
// map is empty.
func (m *CountMap[T]) Pop() (t T, delta int64, ok bool) {
	for k, v := range m.counts {
		delete(m.counts, k)
		return k, v, true
	}

	return t, 0, false
}

// Len returns the number of distinct times with a nonzero count.
func (m *CountMap[T]) Len() int {
	return len(m.counts)
}

// Clear empties the map without reallocating its backing storage.
func (m *CountMap[T]) Clear() {
	clear(m.counts)
}

// Drain calls f once for every (time, delta) pair currently held, then empties
// the map. It is equivalent to repeated Pop but avoids the per-call overhead
// of the ok return when the caller just wants to iterate once.
func (m *CountMap[T]) Drain(f func(t T, delta int64)) {
	for k, v := range m.counts {
		f(k, v)
	}

	clear(m.counts)
}

// Elements returns a snapshot slice of (time, delta) pairs without draining
// the map. Used where a read-only view is needed, e.g. seeding pointstamps
// from initial capabilities.
func (m *CountMap[T]) Elements() []Entry[T] {
	out := make([]Entry[T], 0, len(m.counts))
	for k, v := range m.counts {
		out = append(out, Entry[T]{Time: k, Delta: v})
	}

	return out
}

// Entry is a single (time, delta) pair.
type Entry[T comparable] struct {
	Time  T
	Delta int64
}
