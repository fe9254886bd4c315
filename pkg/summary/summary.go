// Package summary implements the timestamp/path-summary algebra used by the
// progress-tracking core: nested product timestamps (TOuter, TInner) and
// tagged-union path summaries Local(inner) / Outer(outer, inner) that compose
// under FollowedBy and act on timestamps under ResultsIn.
package summary

// Ordered is satisfied by any value with a partial order comparison against
// its own type. Both timestamps and path summaries implement it: timestamps
// so MutableAntichain can maintain a frontier, summaries so Antichain can
// keep only incomparable (minimal) elements.
type Ordered[T any] interface {
	// LessEqual reports whether the receiver is less than or equal to other
	// in the partial order. Implementations need not be total: if neither
	// x.LessEqual(y) nor y.LessEqual(x) holds, x and y are incomparable.
	LessEqual(other T) bool
}

// OrderedComparable is the constraint satisfied by timestamp types: ordered,
// and usable as a map key so MutableAntichain can hold reference counts.
type OrderedComparable[T any] interface {
	comparable
	Ordered[T]
}

// PathSummary is the effect of traversing a path on a timestamp T: closed
// under composition (FollowedBy) and action on a timestamp (ResultsIn).
// Concrete summary types are compared via the embedded Ordered[PathSummary[T]]
// constraint, which lets Antichain[PathSummary[T]] keep a minimal set of
// summaries without knowing their concrete type.
type PathSummary[T any] interface {
	Ordered[PathSummary[T]]

	// ResultsIn applies the summary to t. ok is false when the summary does
	// not act on t — e.g. a bounded Increment summary whose step would carry
	// t past its declared maximum. A false ok means "this path summary does
	// not reach any concrete time here" and the candidate must be discarded
	// by the caller (never inserted into an antichain).
	ResultsIn(t T) (T, bool)

	// FollowedBy composes the receiver with other: the effect of traversing
	// the receiver's path and then other's.
	FollowedBy(other PathSummary[T]) PathSummary[T]
}
