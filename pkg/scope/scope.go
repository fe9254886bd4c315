// Package scope defines the contract every child of a Subgraph must
// satisfy — a unary operator, a binary operator, a feedback stage, or a
// nested subgraph — and the SummarySet/CountVec shorthand used throughout
// the progress-tracking core to describe per-port antichains and buffers.
package scope

import (
	"github.com/mikesurface/timely-dataflow/pkg/antichain"
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// SummarySet is the antichain of path summaries an implementer reports
// between one input and one output, or between an external output and
// input. Because PathSummary[T] already declares a LessEqual(PathSummary[T])
// method, it structurally satisfies summary.Ordered[PathSummary[T]], so
// Antichain can keep its elements minimal without knowing the concrete
// summary type.
type SummarySet[T any] = antichain.Antichain[summary.PathSummary[T]]

// NewSummarySet returns an empty SummarySet.
func NewSummarySet[T any]() *SummarySet[T] {
	return antichain.New[summary.PathSummary[T]]()
}

// CountVec is a slice of per-port CountMap buffers, one entry per input or
// output port — the shape pull_internal_progress and push_external_progress
// pass around (spec.md §4.1).
type CountVec[T comparable] []*countmap.CountMap[T]

// NewCountVec returns a CountVec of n freshly allocated, empty CountMaps.
func NewCountVec[T comparable](n int) CountVec[T] {
	v := make(CountVec[T], n)
	for i := range v {
		v[i] = countmap.New[T]()
	}

	return v
}

// Scope is the progress-tracking contract every child of a Subgraph must
// implement: a leaf operator, or another Subgraph acting as an opaque child
// of its parent. T is the child's own (possibly nested-product) timestamp
// type.
type Scope[T summary.OrderedComparable[T]] interface {
	// Inputs returns the number of input ports. Immutable after sealing.
	Inputs() int

	// Outputs returns the number of output ports. Immutable after sealing.
	Outputs() int

	// NotifyMe reports whether this child wants pushed-down frontier
	// updates via PushExternalProgress. A child that answers false is never
	// called; its guarantees are not tracked by the parent.
	NotifyMe() bool

	// GetInternalSummary is called exactly once, before any progress
	// traffic, and returns the internally-derivable input->output summary
	// table (summaries[input][output]) plus any initial capabilities the
	// child requires (one CountMap per output, e.g. to emit at time zero).
	GetInternalSummary() (summaries [][]*SummarySet[T], initialCapabilities CountVec[T])

	// SetExternalSummary is called exactly once, immediately after
	// GetInternalSummary. summaries[output][input] describes how each
	// output ultimately reaches each input through the outside world;
	// frontier carries the initial external guarantee on each input and may
	// be mutated in place by the callee to react synchronously.
	SetExternalSummary(summaries [][]*SummarySet[T], frontier CountVec[T])

	// PushExternalProgress delivers the delta of the frontier guaranteed on
	// each input. Called zero or more times; the callee must absorb it and
	// may react synchronously.
	PushExternalProgress(changes CountVec[T])

	// PullInternalProgress asks the child to report: changes to its
	// output-capability frontier (internal), counts of messages consumed
	// from each input (consumed), and counts of messages produced to each
	// output (produced). Returns true if the child has pending work that
	// should cause another pull soon. The child must not emit updates that
	// reference a time below its guaranteed input frontier.
	PullInternalProgress(internal, consumed, produced CountVec[T]) bool
}
