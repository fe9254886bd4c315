package demo

import (
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// Passthrough is a one-input, one-output operator that forwards every
// message unchanged: the identity half of the nested subgraph
// original_source/examples/distinct.rs:68-105 builds alongside Distinct.
// Stream 2 crosses into the subgraph and leaves again (Rust's `.leave(graph)`)
// without ever being touched by an operator — Passthrough stands in for that
// bare identity edge so the subgraph still has a real scope.Scope child on
// that side to exercise the two-child nested topology.
type Passthrough[T summary.OrderedComparable[T], D any] struct {
	in  *Channel[D, T]
	out *Channel[D, T]

	identity summary.PathSummary[T]
}

// NewPassthrough wires a Passthrough reporting identity as its declared
// input->output summary. identity must be the zero-delay PathSummary for T
// (e.g. summary.Local[...](summary.NewIncrement(0)) at the relevant nesting
// level) since Passthrough never delays a message.
func NewPassthrough[T summary.OrderedComparable[T], D any](in, out *Channel[D, T], identity summary.PathSummary[T]) *Passthrough[T, D] {
	return &Passthrough[T, D]{in: in, out: out, identity: identity}
}

// Inputs implements scope.Scope.
func (p *Passthrough[T, D]) Inputs() int { return 1 }

// Outputs implements scope.Scope.
func (p *Passthrough[T, D]) Outputs() int { return 1 }

// NotifyMe implements scope.Scope.
func (p *Passthrough[T, D]) NotifyMe() bool { return false }

// GetInternalSummary implements scope.Scope: a single identity path from
// input 0 to output 0, and no initial capabilities.
func (p *Passthrough[T, D]) GetInternalSummary() ([][]*scope.SummarySet[T], scope.CountVec[T]) {
	summaries := [][]*scope.SummarySet[T]{
		{scope.NewSummarySet[T]()},
	}
	summaries[0][0].Insert(p.identity)

	return summaries, scope.NewCountVec[T](p.Outputs())
}

// SetExternalSummary implements scope.Scope; Passthrough has no synchronous
// reaction to the external topology.
func (p *Passthrough[T, D]) SetExternalSummary([][]*scope.SummarySet[T], scope.CountVec[T]) {}

// PushExternalProgress implements scope.Scope; never called since
// NotifyMe returns false.
func (p *Passthrough[T, D]) PushExternalProgress(scope.CountVec[T]) {}

// PullInternalProgress implements scope.Scope: every drained message is
// forwarded immediately, at the same timestamp it arrived at, so Passthrough
// never itself holds a capability across ticks.
func (p *Passthrough[T, D]) PullInternalProgress(internal, consumed, produced scope.CountVec[T]) bool {
	messages := p.in.Drain()
	for _, msg := range messages {
		consumed[0].Update(msg.At, 1)
		p.out.Send(msg.Datum, msg.At)
		produced[0].Update(msg.At, 1)
	}

	return p.in.hasPending()
}

var _ scope.Scope[SubTime] = (*Passthrough[SubTime, uint64])(nil)
