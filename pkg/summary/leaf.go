package summary

// Unit is the degenerate outer timestamp of the root scope: spec.md models
// the root as "an outer scope with TOuter = ()". It carries no information
// and is trivially ordered.
type Unit struct{}

// LessEqual implements Ordered[Unit]; Unit has exactly one value.
func (Unit) LessEqual(Unit) bool { return true }

// UnitSummary is the only PathSummary over Unit: it is its own identity.
type UnitSummary struct{}

// ResultsIn implements PathSummary[Unit].
func (UnitSummary) ResultsIn(t Unit) (Unit, bool) { return t, true }

// FollowedBy implements PathSummary[Unit].
func (UnitSummary) FollowedBy(PathSummary[Unit]) PathSummary[Unit] { return UnitSummary{} }

// LessEqual implements Ordered[PathSummary[Unit]].
func (UnitSummary) LessEqual(PathSummary[Unit]) bool { return true }

// Time is a scalar logical timestamp, e.g. a sequence number or epoch
// counter. It is the typical TInner of the innermost scope in a dataflow.
type Time uint64

// LessEqual implements Ordered[Time] over the usual total order on integers.
func (t Time) LessEqual(other Time) bool { return t <= other }

// Increment is a PathSummary over Time that advances it by a fixed Step.
// Max, when nonzero, bounds the timestamps the summary can reach: beyond it,
// ResultsIn reports ok=false, which is what stops a message from cycling
// through a feedback edge forever. Max plays no part in LessEqual or in
// set_summaries' followed_by fixpoint: there a composition with more steps
// is dominated by one with fewer and discarded, bounded or not.
type Increment struct {
	Step uint64
	Max  uint64 // 0 means unbounded
}

// NewIncrement returns an unbounded Increment advancing by step.
func NewIncrement(step uint64) Increment { return Increment{Step: step} }

// NewBoundedIncrement returns an Increment advancing by step, capped at max.
func NewBoundedIncrement(step, max uint64) Increment { return Increment{Step: step, Max: max} }

// ResultsIn implements PathSummary[Time].
func (s Increment) ResultsIn(t Time) (Time, bool) {
	next := t + Time(s.Step)
	if s.Max != 0 && uint64(next) > s.Max {
		return 0, false
	}

	return next, true
}

// FollowedBy implements PathSummary[Time]: steps add, and the bound
// tightens to whichever side has the smaller (nonzero) maximum.
func (s Increment) FollowedBy(otherPS PathSummary[Time]) PathSummary[Time] {
	other, ok := otherPS.(Increment)
	if !ok {
		panic("summary: expected Increment, got incompatible PathSummary implementation")
	}

	combinedMax := s.Max
	if other.Max != 0 && (combinedMax == 0 || other.Max < combinedMax) {
		combinedMax = other.Max
	}

	return Increment{Step: s.Step + other.Step, Max: combinedMax}
}

// LessEqual implements Ordered[PathSummary[Time]]: fewer steps is "less".
func (s Increment) LessEqual(otherPS PathSummary[Time]) bool {
	other, ok := otherPS.(Increment)
	if !ok {
		return false
	}

	return s.Step <= other.Step
}
