package summary

// Product is a nested timestamp (TOuter, TInner), the timestamp type of any
// scope one level inside its parent. Product composes recursively: a
// subgraph three levels deep carries a Product of a Product.
type Product[TOuter OrderedComparable[TOuter], TInner OrderedComparable[TInner]] struct {
	Outer TOuter
	Inner TInner
}

// LessEqual is the pointwise partial order on the pair.
func (p Product[TOuter, TInner]) LessEqual(other Product[TOuter, TInner]) bool {
	return p.Outer.LessEqual(other.Outer) && p.Inner.LessEqual(other.Inner)
}

// ProductSummary is the path summary for Product[TOuter, TInner]: either
// Local(inner), which stays within the current scope and only advances the
// inner coordinate, or Outer(outer, inner), which leaves the scope, advances
// the outer coordinate by outer, and resets+advances the inner coordinate.
type ProductSummary[TOuter OrderedComparable[TOuter], TInner OrderedComparable[TInner]] struct {
	local bool
	outer PathSummary[TOuter] // unused (nil) when local
	inner PathSummary[TInner]
}

// Local builds the summary that stays inside the current scope.
func Local[TOuter OrderedComparable[TOuter], TInner OrderedComparable[TInner]](inner PathSummary[TInner]) ProductSummary[TOuter, TInner] {
	return ProductSummary[TOuter, TInner]{local: true, inner: inner}
}

// OuterSummary builds the summary that leaves and re-enters the scope.
func OuterSummary[TOuter OrderedComparable[TOuter], TInner OrderedComparable[TInner]](outer PathSummary[TOuter], inner PathSummary[TInner]) ProductSummary[TOuter, TInner] {
	return ProductSummary[TOuter, TInner]{local: false, outer: outer, inner: inner}
}

// IsLocal reports whether this is a Local summary.
func (s ProductSummary[TOuter, TInner]) IsLocal() bool { return s.local }

// OuterPart returns the outer-scope summary component. It is only meaningful
// when !IsLocal().
func (s ProductSummary[TOuter, TInner]) OuterPart() PathSummary[TOuter] { return s.outer }

// InnerPart returns the inner-scope summary component.
func (s ProductSummary[TOuter, TInner]) InnerPart() PathSummary[TInner] { return s.inner }

// ResultsIn implements PathSummary[Product[TOuter, TInner]].
func (s ProductSummary[TOuter, TInner]) ResultsIn(t Product[TOuter, TInner]) (Product[TOuter, TInner], bool) {
	if s.local {
		inner, ok := s.inner.ResultsIn(t.Inner)
		return Product[TOuter, TInner]{Outer: t.Outer, Inner: inner}, ok
	}

	outer, outerOK := s.outer.ResultsIn(t.Outer)

	var zeroInner TInner

	inner, innerOK := s.inner.ResultsIn(zeroInner)

	return Product[TOuter, TInner]{Outer: outer, Inner: inner}, outerOK && innerOK
}

// FollowedBy implements PathSummary[Product[TOuter, TInner]] per the
// composition table:
//
//	(Local, Local)   -> Local(inner1.FollowedBy(inner2))
//	(Local, Outer)   -> other
//	(Outer, Local)   -> Outer(outer1, inner1.FollowedBy(inner2))
//	(Outer, Outer)   -> Outer(outer1.FollowedBy(outer2), inner2)
func (s ProductSummary[TOuter, TInner]) FollowedBy(otherPS PathSummary[Product[TOuter, TInner]]) PathSummary[Product[TOuter, TInner]] {
	other := mustProductSummary[TOuter, TInner](otherPS)

	switch {
	case s.local && other.local:
		return Local[TOuter, TInner](s.inner.FollowedBy(other.inner))
	case s.local && !other.local:
		return other
	case !s.local && other.local:
		return OuterSummary[TOuter, TInner](s.outer, s.inner.FollowedBy(other.inner))
	default:
		return OuterSummary[TOuter, TInner](s.outer.FollowedBy(other.outer), other.inner)
	}
}

// LessEqual implements Ordered[PathSummary[Product[TOuter,TInner]]]: Local is
// strictly below Outer, and within a tag the comparison is lexicographic over
// the components.
func (s ProductSummary[TOuter, TInner]) LessEqual(otherPS PathSummary[Product[TOuter, TInner]]) bool {
	other := mustProductSummary[TOuter, TInner](otherPS)

	if s.local != other.local {
		return s.local // Local < Outer
	}

	if s.local {
		return s.inner.LessEqual(other.inner)
	}

	if !s.outer.LessEqual(other.outer) {
		return false
	}

	if !other.outer.LessEqual(s.outer) {
		// s.outer is strictly below other.outer: the pair is less regardless
		// of how the inner components compare.
		return true
	}

	return s.inner.LessEqual(other.inner)
}

func mustProductSummary[TOuter OrderedComparable[TOuter], TInner OrderedComparable[TInner]](ps PathSummary[Product[TOuter, TInner]]) ProductSummary[TOuter, TInner] {
	s, ok := ps.(ProductSummary[TOuter, TInner])
	if !ok {
		panic("summary: expected ProductSummary, got incompatible PathSummary implementation")
	}

	return s
}
