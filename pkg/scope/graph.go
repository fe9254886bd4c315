package scope

import (
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// Graph is the builder surface exposed to operator authors while a Subgraph
// is still being assembled (spec.md §6.2): adding children, wiring edges,
// and allocating boundary ports. It is deliberately narrow — everything
// that varies per concrete timestamp type lives next to the concrete builder
// in pkg/subgraph (NewSubgraph as a free function, Seal as a method of
// subgraph.Builder), since Go has no
// generic interface methods and NewSubgraph's return type depends on a
// second type parameter (TInner) not fixed by Graph[T] itself.
type Graph[T summary.OrderedComparable[T]] interface {
	// Connect adds an edge from source to target. Legal only before the
	// first GetInternalSummary call.
	Connect(source pointstamp.Source, target pointstamp.Target)

	// AddBoxedScope adds a child and returns its index.
	AddBoxedScope(s Scope[T]) int

	// NewInput allocates a new scope input fed by the shared message
	// counter sharedCounts, returning its index.
	NewInput(sharedCounts *countmap.CountMap[T]) int

	// NewOutput allocates a new scope output, returning its index.
	NewOutput() int

	// Communicator returns the handle operator authors use to allocate data
	// channels. Its concrete type is outside this package's concern.
	Communicator() any
}
