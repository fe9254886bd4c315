package demo

import (
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
)

// Input is a zero-input, one-output source scope modeling the
// new_input/send_messages/advance/close_at handle
// original_source/examples/distinct.rs:55-105 drives directly. Unlike a
// bare graph-input port (Subgraph.NewInput's shared counter, fed by whoever
// sits outside the graph), an Input holds a real capability at a single
// time and only relinquishes it when AdvanceTo/CloseAt is called — so
// "advance to 1,000,000 and close" is a genuine capability change
// PullInternalProgress reports, not a side effect of how the graph was
// sealed.
type Input struct {
	out *Channel[uint64, GraphTime]

	heldAt GraphTime
	held   bool

	pendingProduced   *countmap.CountMap[GraphTime]
	pendingCapability *countmap.CountMap[GraphTime]
}

// NewInput wires an Input holding its initial capability at tick 0 and
// forwarding sent payloads onto out.
func NewInput(out *Channel[uint64, GraphTime]) *Input {
	heldAt := At(0)

	in := &Input{
		out:               out,
		heldAt:            heldAt,
		held:              true,
		pendingProduced:   countmap.New[GraphTime](),
		pendingCapability: countmap.New[GraphTime](),
	}
	in.pendingCapability.Update(heldAt, 1)

	return in
}

// Send enqueues datum for delivery at the time currently held.
func (in *Input) Send(datum uint64) {
	in.out.Send(datum, in.heldAt)
	in.pendingProduced.Update(in.heldAt, 1)
}

// AdvanceTo moves the held capability forward to tick t, as
// input1.advance(&((), old), &((), t)) does in the Rust source. It panics if
// the input has already been closed.
func (in *Input) AdvanceTo(t uint64) {
	if !in.held {
		panic("demo: AdvanceTo called on a closed Input")
	}

	next := At(t)
	in.pendingCapability.Update(in.heldAt, -1)
	in.pendingCapability.Update(next, 1)
	in.heldAt = next
}

// CloseAt relinquishes the held capability permanently, as
// input1.close_at(&((), t)) does in the Rust source. t must be the time
// currently held — advance to it first.
func (in *Input) CloseAt(t uint64) {
	if !in.held || in.heldAt != At(t) {
		panic("demo: CloseAt called at a time the Input is not currently holding")
	}

	in.pendingCapability.Update(in.heldAt, -1)
	in.held = false
}

// Inputs implements scope.Scope.
func (in *Input) Inputs() int { return 0 }

// Outputs implements scope.Scope.
func (in *Input) Outputs() int { return 1 }

// NotifyMe implements scope.Scope: an Input has no inputs of its own to be
// notified about.
func (in *Input) NotifyMe() bool { return false }

// GetInternalSummary implements scope.Scope: no input reaches any output
// (zero inputs), and the initial capability held at tick zero is reported
// as work.
func (in *Input) GetInternalSummary() ([][]*scope.SummarySet[GraphTime], scope.CountVec[GraphTime]) {
	work := scope.NewCountVec[GraphTime](1)
	in.pendingCapability.Drain(func(t GraphTime, delta int64) { work[0].Update(t, delta) })

	return [][]*scope.SummarySet[GraphTime]{}, work
}

// SetExternalSummary implements scope.Scope; Input has no reaction to the
// external topology.
func (in *Input) SetExternalSummary([][]*scope.SummarySet[GraphTime], scope.CountVec[GraphTime]) {}

// PushExternalProgress implements scope.Scope; never called since
// NotifyMe returns false.
func (in *Input) PushExternalProgress(scope.CountVec[GraphTime]) {}

// PullInternalProgress implements scope.Scope: flushes whatever
// Send/AdvanceTo/CloseAt accumulated since the last call.
func (in *Input) PullInternalProgress(internal, consumed, produced scope.CountVec[GraphTime]) bool {
	in.pendingCapability.Drain(func(t GraphTime, delta int64) { internal[0].Update(t, delta) })
	in.pendingProduced.Drain(func(t GraphTime, delta int64) { produced[0].Update(t, delta) })

	return in.held
}

var _ scope.Scope[GraphTime] = (*Input)(nil)
