package demo

import (
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// Distinct is a one-input, one-output operator that deduplicates payloads
// sharing a timestamp and emits each distinct value exactly once, mirroring
// original_source/src/example/distinct.rs's DistinctExtensionTrait. Rust's
// notificator.notify_at/notificator.next() pair delays delivery by exactly
// one notification cycle; Distinct reproduces that with a per-time
// first-seen tick so a value arriving in the same PullInternalProgress call
// that holds its time is not flushed until the next call.
//
// T is generic rather than fixed to GraphTime because
// original_source/examples/distinct.rs:68-105 nests Distinct one level
// inside the root, inside a child subgraph, so it actually runs over
// SubTime.
type Distinct[T summary.OrderedComparable[T], D comparable] struct {
	in  *Channel[D, T]
	out *Channel[D, T]

	advance summary.PathSummary[T]

	tick      int
	heldSince map[T]int
	seen      map[T]map[D]struct{}
}

// NewDistinct wires a Distinct operator reading from in and writing to out.
// advance is the PathSummary Distinct declares for its single input->output
// path; the caller supplies it because a generic operator cannot construct
// a concrete ProductSummary for an unknown T.
func NewDistinct[T summary.OrderedComparable[T], D comparable](in, out *Channel[D, T], advance summary.PathSummary[T]) *Distinct[T, D] {
	return &Distinct[T, D]{
		in:        in,
		out:       out,
		advance:   advance,
		heldSince: make(map[T]int),
		seen:      make(map[T]map[D]struct{}),
	}
}

// Inputs implements scope.Scope.
func (d *Distinct[T, D]) Inputs() int { return 1 }

// Outputs implements scope.Scope.
func (d *Distinct[T, D]) Outputs() int { return 1 }

// NotifyMe implements scope.Scope: Distinct only needs its own
// PullInternalProgress calls, never pushed-down frontier updates.
func (d *Distinct[T, D]) NotifyMe() bool { return false }

// GetInternalSummary implements scope.Scope: a single path from input 0 to
// output 0 via the advance summary, and no initial capabilities.
func (d *Distinct[T, D]) GetInternalSummary() ([][]*scope.SummarySet[T], scope.CountVec[T]) {
	summaries := [][]*scope.SummarySet[T]{
		{scope.NewSummarySet[T]()},
	}
	summaries[0][0].Insert(d.advance)

	return summaries, scope.NewCountVec[T](d.Outputs())
}

// SetExternalSummary implements scope.Scope; Distinct has no synchronous
// reaction to the external topology.
func (d *Distinct[T, D]) SetExternalSummary([][]*scope.SummarySet[T], scope.CountVec[T]) {}

// PushExternalProgress implements scope.Scope; never called since
// NotifyMe returns false.
func (d *Distinct[T, D]) PushExternalProgress(scope.CountVec[T]) {}

// PullInternalProgress implements scope.Scope. It drains every pending
// message, records the first time it holds a capability for a given
// timestamp, and flushes (emits + releases the capability for) any
// timestamp it has held since a strictly earlier tick.
func (d *Distinct[T, D]) PullInternalProgress(internal, consumed, produced scope.CountVec[T]) bool {
	d.tick++

	messages := d.in.Drain()
	for _, msg := range messages {
		consumed[0].Update(msg.At, 1)

		bucket, ok := d.seen[msg.At]
		if !ok {
			bucket = make(map[D]struct{})
			d.seen[msg.At] = bucket
		}

		if _, dup := bucket[msg.Datum]; dup {
			continue
		}

		bucket[msg.Datum] = struct{}{}

		if _, held := d.heldSince[msg.At]; !held {
			d.heldSince[msg.At] = d.tick
			internal[0].Update(msg.At, 1)
		}
	}

	pending := false

	for at, since := range d.heldSince {
		if since >= d.tick {
			pending = true
			continue
		}

		for datum := range d.seen[at] {
			d.out.Send(datum, at)
			produced[0].Update(at, 1)
		}

		delete(d.seen, at)
		delete(d.heldSince, at)
		internal[0].Update(at, -1)
	}

	return pending || d.in.hasPending()
}

var _ scope.Scope[SubTime] = (*Distinct[SubTime, uint64])(nil)
