// Package antichain implements the minimal-element-set and reference-counted
// multiset types used to track frontiers: the antichain of times below which
// no further messages or capabilities can appear.
package antichain

import "github.com/mikesurface/timely-dataflow/pkg/summary"

// Antichain holds the minimal elements of a set under T's partial order: no
// element is less-than-or-equal to any other. It is used both for frontiers
// of timestamps and for sets of path summaries between two ports.
type Antichain[T summary.Ordered[T]] struct {
	elements []T
}

// New returns an empty Antichain.
func New[T summary.Ordered[T]]() *Antichain[T] {
	return &Antichain[T]{}
}

// FromElem returns an Antichain containing exactly one element.
func FromElem[T summary.Ordered[T]](x T) *Antichain[T] {
	return &Antichain[T]{elements: []T{x}}
}

// Elements returns the antichain's minimal elements. The returned slice must
// not be mutated by the caller.
func (a *Antichain[T]) Elements() []T {
	return a.elements
}

// Len returns the number of minimal elements.
func (a *Antichain[T]) Len() int {
	return len(a.elements)
}

// Insert adds x if no existing element is <= x, simultaneously removing any
// existing element that is >= x (x dominates it). Returns true iff the
// antichain changed.
func (a *Antichain[T]) Insert(x T) bool {
	for _, existing := range a.elements {
		if existing.LessEqual(x) {
			return false
		}
	}

	kept := a.elements[:0]

	for _, existing := range a.elements {
		if !x.LessEqual(existing) {
			kept = append(kept, existing)
		}
	}

	kept = append(kept, x)
	a.elements = kept

	return true
}

// Clone returns an independent copy of the antichain.
func (a *Antichain[T]) Clone() *Antichain[T] {
	out := &Antichain[T]{elements: make([]T, len(a.elements))}
	copy(out.elements, a.elements)

	return out
}

// Dominates reports whether some element of the antichain is <= t, i.e.
// whether t is at or beyond the frontier the antichain represents.
func (a *Antichain[T]) Dominates(t T) bool {
	for _, existing := range a.elements {
		if existing.LessEqual(t) {
			return true
		}
	}

	return false
}
