package subgraph

import (
	"github.com/mikesurface/timely-dataflow/pkg/antichain"
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// summaryEntry pairs a reachable target with the antichain of summaries
// that reach it — the (Target, Antichain<Summary>) tuples of spec.md §3.
type summaryEntry[T any] struct {
	Target  pointstamp.Target
	Summary *scope.SummarySet[T]
}

// Subgraph is the recursive scope container: it owns child scopes, the
// edges between them, the transitive path-summary tables, and the
// pointstamp accounting that turns child activity into frontier deltas
// pushed to children and up to the parent (spec.md §3-4.2).
//
// TOuter is the timestamp this subgraph presents to its own parent; TInner
// is the coordinate it advances internally. Children operate over the
// product summary.Product[TOuter, TInner].
type Subgraph[TOuter summary.OrderedComparable[TOuter], TInner summary.OrderedComparable[TInner]] struct {
	Name  string
	Index int

	// identityOuterSummary and identityInnerSummary are the zero-delay path
	// summaries for TOuter and TInner respectively. They seed
	// source_summaries/input_summaries with direct edges and stand in for
	// Default::default() in the Rust source (spec.md §9 Open Questions:
	// "default_summary... represents zero additional delay"). Go cannot
	// derive a zero-value PathSummary generically the way Rust's Default
	// bound does, so both are supplied at construction.
	identityOuterSummary summary.PathSummary[TOuter]
	identityInnerSummary summary.PathSummary[TInner]

	inputs  int
	outputs int

	inputEdges [][]pointstamp.Target // per graph input

	externalSummaries [][]*scope.SummarySet[TOuter] // [output][input]

	sourceSummaries [][][]summaryEntry[summary.Product[TOuter, TInner]] // [scope][output] -> targets
	targetSummaries [][][]summaryEntry[summary.Product[TOuter, TInner]] // [scope][input] -> targets
	inputSummaries  [][]summaryEntry[summary.Product[TOuter, TInner]]   // [input] -> targets

	externalCapability []*antichain.MutableAntichain[TOuter] // per output
	externalGuarantee  []*antichain.MutableAntichain[TOuter] // per input

	children []*ScopeWrapper[summary.Product[TOuter, TInner]]

	inputMessages []*countmap.CountMap[summary.Product[TOuter, TInner]]

	pointstamps *pointstamp.PointstampCounter[summary.Product[TOuter, TInner]]

	pointstampMessages []progcaster.Delta[summary.Product[TOuter, TInner]]
	pointstampInternal []progcaster.Delta[summary.Product[TOuter, TInner]]

	progcaster *progcaster.Progcaster[summary.Product[TOuter, TInner]]

	sealed bool
}

// NewFrom constructs an empty, unsealed Subgraph. identityOuter and
// identityInner must be the zero-delay (identity) PathSummary for TOuter and
// TInner respectively — see the identityOuterSummary/identityInnerSummary
// field doc.
func NewFrom[TOuter summary.OrderedComparable[TOuter], TInner summary.OrderedComparable[TInner]](
	pc *progcaster.Progcaster[summary.Product[TOuter, TInner]],
	identityOuter summary.PathSummary[TOuter],
	identityInner summary.PathSummary[TInner],
) *Subgraph[TOuter, TInner] {
	return &Subgraph[TOuter, TInner]{
		identityOuterSummary: identityOuter,
		identityInnerSummary: identityInner,
		pointstamps:          pointstamp.New[summary.Product[TOuter, TInner]](),
		progcaster:           pc,
	}
}

// defaultSummary returns the identity PathSummary over
// summary.Product[TOuter, TInner]: Local(identityInnerSummary), which
// advances neither coordinate.
func (s *Subgraph[TOuter, TInner]) defaultSummary() summary.PathSummary[summary.Product[TOuter, TInner]] {
	return summary.Local[TOuter, TInner](s.identityInnerSummary)
}

// Children returns the number of children added so far.
func (s *Subgraph[TOuter, TInner]) Children() int { return len(s.children) }

// Inputs returns the number of graph inputs allocated so far.
func (s *Subgraph[TOuter, TInner]) Inputs() int { return s.inputs }

// Outputs returns the number of graph outputs allocated so far.
func (s *Subgraph[TOuter, TInner]) Outputs() int { return s.outputs }

// NotifyMe reports whether this subgraph wants pushed-down frontier
// updates; a subgraph always does, since it must forward them to children.
func (s *Subgraph[TOuter, TInner]) NotifyMe() bool { return true }

// NewInput allocates a new graph input fed by sharedCounts, returning its
// index.
func (s *Subgraph[TOuter, TInner]) NewInput(sharedCounts *countmap.CountMap[summary.Product[TOuter, TInner]]) int {
	s.inputs++
	s.externalGuarantee = append(s.externalGuarantee, antichain.NewMutable[TOuter]())
	s.inputMessages = append(s.inputMessages, sharedCounts)

	return s.inputs - 1
}

// NewOutput allocates a new graph output, returning its index.
func (s *Subgraph[TOuter, TInner]) NewOutput() int {
	s.outputs++
	s.externalCapability = append(s.externalCapability, antichain.NewMutable[TOuter]())

	return s.outputs - 1
}

// AddBoxedScope adds a child, sealing it via GetInternalSummary, and
// returns its index.
func (s *Subgraph[TOuter, TInner]) AddBoxedScope(child scope.Scope[summary.Product[TOuter, TInner]]) int {
	index := len(s.children)
	s.children = append(s.children, newScopeWrapper(child, index))

	return index
}

// Connect adds an edge from source to target: either fanning out a child's
// output, or recording where a graph input's messages should flow.
func (s *Subgraph[TOuter, TInner]) Connect(source pointstamp.Source, target pointstamp.Target) {
	if source.IsGraphInput() {
		input := source.Port()
		for len(s.inputEdges) <= input {
			s.inputEdges = append(s.inputEdges, nil)
		}

		s.inputEdges[input] = append(s.inputEdges[input], target)

		return
	}

	s.children[source.Scope()].addEdge(source.Port(), target)
}
