package antichain

import "github.com/mikesurface/timely-dataflow/pkg/summary"

// MutableAntichain is a reference-counted multiset over T, plus the derived
// frontier: the antichain of elements currently held with a positive count.
// It is the core bookkeeping structure behind outstanding_messages and
// capabilities (spec.md §3).
type MutableAntichain[T summary.OrderedComparable[T]] struct {
	counts   map[T]int64
	frontier Antichain[T]
}

// NewMutable returns an empty MutableAntichain.
func NewMutable[T summary.OrderedComparable[T]]() *MutableAntichain[T] {
	return &MutableAntichain[T]{counts: make(map[T]int64)}
}

// Frontier returns the antichain of elements with positive count. The
// returned slice must not be mutated.
func (m *MutableAntichain[T]) Frontier() []T {
	return m.frontier.Elements()
}

// Empty reports whether no element currently has a positive count.
func (m *MutableAntichain[T]) Empty() bool {
	return m.frontier.Len() == 0
}

// Update applies a single (t, delta) change to the reference counts and
// recomputes the frontier, invoking f for every resulting frontier change:
// f(t, -1) for an old frontier element that dropped out, f(t, +1) for a new
// one that appeared. This is update_and from spec.md §3.
func (m *MutableAntichain[T]) Update(t T, delta int64, f func(t T, delta int64)) {
	if m.counts == nil {
		m.counts = make(map[T]int64)
	}

	before := m.counts[t]
	after := before + delta

	if after == 0 {
		delete(m.counts, t)
	} else {
		m.counts[t] = after
	}

	if negativeCount := after < 0; negativeCount {
		panic("antichain: reference count went negative — progress inconsistency")
	}

	wasPositive := before > 0
	isPositive := after > 0

	switch {
	case wasPositive == isPositive:
		return
	case isPositive && !wasPositive:
		m.recomputeFrontierAfterGain(t, f)
	case wasPositive && !isPositive:
		m.recomputeFrontierAfterLoss(t, f)
	}
}

// UpdateIntoCountMap drains every (t, delta) held in delta and records the
// resulting frontier changes into out, rather than invoking a callback. This
// is update_into_cm from spec.md §3, used to compute guarantee/capability
// deltas that get pushed downstream. delta is left empty, matching the
// Rust source's CountMap::pop-until-empty draining.
func (m *MutableAntichain[T]) UpdateIntoCountMap(delta DrainableCountMap[T], out CountMapLike[T]) {
	delta.Drain(func(t T, d int64) {
		m.Update(t, d, func(t T, d int64) { out.Update(t, d) })
	})
}

// DrainableCountMap is the minimal interface MutableAntichain needs to drain
// an input batch from — satisfied by *countmap.CountMap[T].
type DrainableCountMap[T any] interface {
	Drain(f func(t T, delta int64))
}

// Entry is a (time, delta) pair, used to pass batches of changes around
// without importing the countmap package (which would create an import
// cycle: countmap has no dependency on antichain, but call sites adapt).
type Entry[T any] struct {
	Time  T
	Delta int64
}

// CountMapLike is the minimal interface MutableAntichain needs to report
// frontier deltas into — satisfied by *countmap.CountMap[T].
type CountMapLike[T any] interface {
	Update(t T, delta int64)
}

// recomputeFrontierAfterGain handles t transitioning from non-positive to
// positive: t may newly belong to the frontier (if no existing frontier
// element is <= t), and may evict elements the new presence of t dominates.
func (m *MutableAntichain[T]) recomputeFrontierAfterGain(t T, f func(T, int64)) {
	if m.frontier.Dominates(t) {
		return // an existing frontier element already covers t
	}

	evicted := m.frontier.elements[:0]

	for _, existing := range m.frontier.elements {
		if t.LessEqual(existing) {
			f(existing, -1)
		} else {
			evicted = append(evicted, existing)
		}
	}

	m.frontier.elements = append(evicted, t)
	f(t, 1)
}

// recomputeFrontierAfterLoss handles t transitioning from positive to
// non-positive. If t was on the frontier, it is removed and the frontier is
// rebuilt from the remaining positive-count elements; every element that
// newly appears on the rebuilt frontier is reported via f.
func (m *MutableAntichain[T]) recomputeFrontierAfterLoss(t T, f func(T, int64)) {
	onFrontier := false

	for _, existing := range m.frontier.elements {
		if existing == t {
			onFrontier = true
			break
		}
	}

	if !onFrontier {
		return
	}

	before := make(map[T]bool, len(m.frontier.elements))
	for _, existing := range m.frontier.elements {
		before[existing] = true
	}

	rebuilt := New[T]()

	for candidate, count := range m.counts {
		if count > 0 {
			rebuilt.Insert(candidate)
		}
	}

	f(t, -1)

	for _, newElem := range rebuilt.elements {
		if !before[newElem] {
			f(newElem, 1)
		}
	}

	m.frontier = *rebuilt
}
