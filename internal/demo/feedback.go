package demo

import (
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// feedbackBound is the bound original_source/examples/distinct.rs passes to
// stream.feedback(((), 100000), Local(1)): the inner coordinate a looped-back
// message may reach before the path summary refuses to advance it further.
// A message whose relabeled time would pass this bound is dropped rather
// than forwarded, which is what ends a cycle.
const feedbackBound = 100_000

// Feedback is a one-input, two-output operator relabeling every message it
// forwards to a strictly later time, the minimal operator needed to close a
// cycle in the dataflow graph (original_source/examples/distinct.rs's
// stream.feedback call). Output 0 is the loop-back edge — in Scenario's
// wiring it re-enters the nested subgraph on the opposite stream from the
// one that fed this Feedback, crossing the two streams' loops
// (original_source/examples/distinct.rs:90-97's cross connect_input calls);
// output 1 is a tap exposing the same relabeled message to an external
// observer without disturbing the loop, standing in for the Rust source's
// separate probe on the subgraph's external output. Its internal summary is
// the bounded Increment the design note requires; PullInternalProgress
// applies that same summary to each drained message's timestamp before
// forwarding it, so the reported internal/consumed/produced counts stay
// consistent with the payload it actually relabels.
type Feedback[D any] struct {
	in  *Channel[D, GraphTime]
	out *Channel[D, GraphTime]
	tap *Channel[D, GraphTime]

	summary summary.ProductSummary[summary.Unit, summary.Time]
}

// NewFeedback wires a Feedback operator with the Rust source's default
// bound (feedbackBound), reading looped-back messages from in, re-sending
// them relabeled on out (output 0), and mirroring them onto tap (output 1)
// for external observation.
func NewFeedback[D any](in, out, tap *Channel[D, GraphTime]) *Feedback[D] {
	return NewFeedbackWithBound[D](in, out, tap, feedbackBound)
}

// NewFeedbackWithBound is NewFeedback with an explicit bound, letting tests
// exercise the same cross-wired topology with a small bound so the cycle
// terminates in a handful of ticks instead of feedbackBound's full range.
func NewFeedbackWithBound[D any](in, out, tap *Channel[D, GraphTime], bound uint64) *Feedback[D] {
	return &Feedback[D]{
		in:      in,
		out:     out,
		tap:     tap,
		summary: summary.Local[summary.Unit, summary.Time](summary.NewBoundedIncrement(1, bound)),
	}
}

// Inputs implements scope.Scope.
func (f *Feedback[D]) Inputs() int { return 1 }

// Outputs implements scope.Scope.
func (f *Feedback[D]) Outputs() int { return 2 }

// NotifyMe implements scope.Scope.
func (f *Feedback[D]) NotifyMe() bool { return false }

// GetInternalSummary implements scope.Scope: the input reaches both outputs
// through the same bounded Increment the cycle requires.
func (f *Feedback[D]) GetInternalSummary() ([][]*scope.SummarySet[GraphTime], scope.CountVec[GraphTime]) {
	summaries := [][]*scope.SummarySet[GraphTime]{
		{scope.NewSummarySet[GraphTime](), scope.NewSummarySet[GraphTime]()},
	}
	summaries[0][0].Insert(f.summary)
	summaries[0][1].Insert(f.summary)

	return summaries, scope.NewCountVec[GraphTime](f.Outputs())
}

// SetExternalSummary implements scope.Scope.
func (f *Feedback[D]) SetExternalSummary([][]*scope.SummarySet[GraphTime], scope.CountVec[GraphTime]) {
}

// PushExternalProgress implements scope.Scope; never called since NotifyMe
// returns false.
func (f *Feedback[D]) PushExternalProgress(scope.CountVec[GraphTime]) {}

// PullInternalProgress implements scope.Scope: every drained message is
// relabeled by the feedback summary and forwarded on both outputs unless the
// bound has been exceeded, in which case it is dropped and neither consumed
// nor produced at the advanced time are reported for it.
func (f *Feedback[D]) PullInternalProgress(internal, consumed, produced scope.CountVec[GraphTime]) bool {
	messages := f.in.Drain()
	for _, msg := range messages {
		consumed[0].Update(msg.At, 1)

		next, ok := f.summary.ResultsIn(msg.At)
		if !ok {
			continue
		}

		f.out.Send(msg.Datum, next)
		produced[0].Update(next, 1)

		f.tap.Send(msg.Datum, next)
		produced[1].Update(next, 1)
	}

	return f.in.hasPending()
}

var _ scope.Scope[GraphTime] = (*Feedback[int])(nil)
