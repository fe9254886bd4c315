package subgraph

import (
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// Builder is the construction-time handle for a Subgraph: it exposes the
// topology-wiring surface (connect, add a child, allocate a port) while the
// Subgraph is still unsealed, and nothing else. This keeps the builder role
// separate from the progress-tracking Scope role the Design Notes (spec.md
// §9) call for, instead of aliasing a single type for both purposes: once
// Seal is called the *Subgraph is handed to the parent exclusively, and the
// Builder must not be used again.
type Builder[TOuter summary.OrderedComparable[TOuter], TInner summary.OrderedComparable[TInner]] struct {
	sub    *Subgraph[TOuter, TInner]
	sealed bool
}

// NewBuilder wraps a freshly constructed, unsealed Subgraph.
func NewBuilder[TOuter summary.OrderedComparable[TOuter], TInner summary.OrderedComparable[TInner]](
	pc *progcaster.Progcaster[summary.Product[TOuter, TInner]],
	identityOuter summary.PathSummary[TOuter],
	identityInner summary.PathSummary[TInner],
) *Builder[TOuter, TInner] {
	return &Builder[TOuter, TInner]{sub: NewFrom[TOuter, TInner](pc, identityOuter, identityInner)}
}

// Connect adds an edge from source to target. Legal only before Seal.
func (b *Builder[TOuter, TInner]) Connect(source pointstamp.Source, target pointstamp.Target) {
	b.mustBeOpen()
	b.sub.Connect(source, target)
}

// AddBoxedScope adds a child, returning its index.
func (b *Builder[TOuter, TInner]) AddBoxedScope(child scope.Scope[summary.Product[TOuter, TInner]]) int {
	b.mustBeOpen()
	return b.sub.AddBoxedScope(child)
}

// NewInput allocates a new graph input fed by sharedCounts, returning its
// index.
func (b *Builder[TOuter, TInner]) NewInput(sharedCounts *countmap.CountMap[summary.Product[TOuter, TInner]]) int {
	b.mustBeOpen()
	return b.sub.NewInput(sharedCounts)
}

// NewOutput allocates a new graph output, returning its index.
func (b *Builder[TOuter, TInner]) NewOutput() int {
	b.mustBeOpen()
	return b.sub.NewOutput()
}

// Index reports the under-construction subgraph's index among its
// siblings, as assigned by the parent's AddBoxedScope call.
func (b *Builder[TOuter, TInner]) Index() int { return b.sub.Index }

// SetIndex records the index the parent assigned this subgraph when adding
// it as a child, mirroring the Rust source's post-hoc `result.index = ...`
// assignment in new_subgraph.
func (b *Builder[TOuter, TInner]) SetIndex(index int) { b.sub.Index = index }

// Seal performs GetInternalSummary and SetExternalSummary — the two calls
// every Scope receives exactly once, in order, before any progress traffic
// — and returns the now-sealed Subgraph, owned exclusively by whoever calls
// Seal. The Builder must not be used again afterwards.
func (b *Builder[TOuter, TInner]) Seal(externalSummaries [][]*scope.SummarySet[TOuter], frontier scope.CountVec[TOuter]) (*Subgraph[TOuter, TInner], [][]*scope.SummarySet[TOuter], scope.CountVec[TOuter]) {
	b.mustBeOpen()

	summaries, work := b.sub.GetInternalSummary()
	b.sub.SetExternalSummary(externalSummaries, frontier)

	b.sealed = true
	b.sub.sealed = true

	return b.sub, summaries, work
}

// AsScope exposes the still-under-construction Subgraph as a scope.Scope,
// for handing to a parent Builder's AddBoxedScope while this Builder's own
// topology is otherwise complete. Unlike Seal, this does not call
// SetExternalSummary: a nested child receives that call once, automatically,
// when the true root seals and its SetExternalSummary cascades down to every
// descendant (Subgraph.SetExternalSummary's child.child.SetExternalSummary
// recursion). Seal must therefore never be called on a Builder whose scope
// was handed to a parent this way.
func (b *Builder[TOuter, TInner]) AsScope() scope.Scope[TOuter] {
	b.mustBeOpen()

	b.sealed = true
	b.sub.sealed = true

	return b.sub
}

func (b *Builder[TOuter, TInner]) mustBeOpen() {
	if b.sealed {
		panic("subgraph: builder used after Seal — topology is frozen once sealed")
	}
}

// NewSubgraph builds a Builder for a subgraph nested one level inside
// parent, whose own outer timestamp is parent's product type
// summary.Product[TOuter, TInner]. This is a free function rather than a
// Builder method because its second type parameter (TInner2) is not fixed
// by parent's own type parameters — Go has no generic methods, so
// scope.Graph[T] (spec.md §6.2) only covers the parts of the builder
// surface that don't vary per call.
func NewSubgraph[TOuter summary.OrderedComparable[TOuter], TInner summary.OrderedComparable[TInner], TInner2 summary.OrderedComparable[TInner2]](
	parent *Builder[TOuter, TInner],
	pc *progcaster.Progcaster[summary.Product[summary.Product[TOuter, TInner], TInner2]],
	identityInner2 summary.PathSummary[TInner2],
) *Builder[summary.Product[TOuter, TInner], TInner2] {
	child := NewBuilder[summary.Product[TOuter, TInner], TInner2](pc, parent.sub.defaultSummary(), identityInner2)
	child.sub.Index = parent.sub.Children()

	return child
}

// NewGraph builds the root Builder: the degenerate outer scope with
// TOuter = summary.Unit (spec.md §3 Lifecycle). The caller seals it once
// the whole computation has been wired, typically with empty external
// summaries and an empty frontier since there is no true outside world
// above the root.
func NewGraph[TInner summary.OrderedComparable[TInner]](
	pc *progcaster.Progcaster[summary.Product[summary.Unit, TInner]],
	identityInner summary.PathSummary[TInner],
) *Builder[summary.Unit, TInner] {
	return NewBuilder[summary.Unit, TInner](pc, summary.UnitSummary{}, identityInner)
}
