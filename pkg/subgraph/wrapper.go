package subgraph

import (
	"github.com/mikesurface/timely-dataflow/pkg/antichain"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// ScopeWrapper holds a Subgraph's per-child bookkeeping: the boxed child
// itself, its cached port counts, its fan-out edges, its internal summary
// table, and the frontiers (guarantees, capabilities, outstanding messages)
// the parent tracks on its behalf. It is never exposed outside pkg/subgraph;
// a child only ever sees the scope.Scope contract.
type ScopeWrapper[T summary.OrderedComparable[T]] struct {
	child scope.Scope[T]
	index int

	inputs  int
	outputs int

	edges [][]pointstamp.Target // per output

	notify  bool
	summary [][]*scope.SummarySet[T] // [input][output]

	guarantees           []*antichain.MutableAntichain[T] // per input
	capabilities         []*antichain.MutableAntichain[T] // per output
	outstandingMessages  []*antichain.MutableAntichain[T] // per input

	internalProgress scope.CountVec[T] // per output
	consumedMessages scope.CountVec[T] // per input
	producedMessages scope.CountVec[T] // per output
	guaranteeChanges scope.CountVec[T] // per input
}

// newScopeWrapper seals a child by calling GetInternalSummary exactly once
// (spec.md §4.1), seeding its initial output capabilities from the returned
// work.
func newScopeWrapper[T summary.OrderedComparable[T]](child scope.Scope[T], index int) *ScopeWrapper[T] {
	inputs := child.Inputs()
	outputs := child.Outputs()

	w := &ScopeWrapper[T]{
		child:   child,
		index:   index,
		inputs:  inputs,
		outputs: outputs,
		edges:   make([][]pointstamp.Target, outputs),
		notify:  child.NotifyMe(),

		guarantees:          make([]*antichain.MutableAntichain[T], inputs),
		capabilities:        make([]*antichain.MutableAntichain[T], outputs),
		outstandingMessages: make([]*antichain.MutableAntichain[T], inputs),

		internalProgress: scope.NewCountVec[T](outputs),
		consumedMessages: scope.NewCountVec[T](inputs),
		producedMessages: scope.NewCountVec[T](outputs),
		guaranteeChanges: scope.NewCountVec[T](inputs),
	}

	for i := range w.guarantees {
		w.guarantees[i] = antichain.NewMutable[T]()
	}

	for i := range w.outstandingMessages {
		w.outstandingMessages[i] = antichain.NewMutable[T]()
	}

	for i := range w.capabilities {
		w.capabilities[i] = antichain.NewMutable[T]()
	}

	summaries, work := child.GetInternalSummary()
	w.summary = summaries

	for output, capability := range w.capabilities {
		work[output].Drain(func(t T, delta int64) {
			capability.Update(t, delta, func(T, int64) {})
		})
	}

	return w
}

// addEdge records that output now also fans out to target.
func (w *ScopeWrapper[T]) addEdge(output int, target pointstamp.Target) {
	w.edges[output] = append(w.edges[output], target)
}

// pushPointstamps absorbs externalProgress (one CountMap delta per input)
// into this child's guarantees. If the child wants notification (notify)
// and any input's guarantee actually moved, it is handed the batch of
// changes via PushExternalProgress (spec.md §4.3).
func (w *ScopeWrapper[T]) pushPointstamps(externalProgress scope.CountVec[T]) {
	if !w.notify {
		return
	}

	anyChange := false

	for i := range w.guarantees {
		w.guarantees[i].UpdateIntoCountMap(externalProgress[i], w.guaranteeChanges[i])
		if w.guaranteeChanges[i].Len() > 0 {
			anyChange = true
		}
	}

	if anyChange {
		w.child.PushExternalProgress(w.guaranteeChanges)

		for _, change := range w.guaranteeChanges {
			change.Clear()
		}
	}
}

// pullPointstamps asks the child for its internal progress, then routes the
// result: produced messages fan out along edges (to msgs for ScopeInput
// targets, to outputAction for GraphOutput targets), internal progress is
// appended to internal as (index, output, time, delta), and consumed
// messages are appended to msgs as negative deltas on this child's own
// input. Returns the child's activity flag.
func (w *ScopeWrapper[T]) pullPointstamps(
	msgs *[]progcaster.Delta[T],
	internal *[]progcaster.Delta[T],
	outputAction func(output int, t T, delta int64),
) bool {
	active := w.child.PullInternalProgress(w.internalProgress, w.consumedMessages, w.producedMessages)

	for output := 0; output < w.outputs; output++ {
		w.producedMessages[output].Drain(func(t T, delta int64) {
			for _, target := range w.edges[output] {
				if target.IsGraphOutput() {
					outputAction(target.Port(), t, delta)
				} else {
					*msgs = append(*msgs, progcaster.Delta[T]{Scope: target.Scope(), Port: target.Port(), Time: t, Delta: delta})
				}
			}
		})

		w.internalProgress[output].Drain(func(t T, delta int64) {
			*internal = append(*internal, progcaster.Delta[T]{Scope: w.index, Port: output, Time: t, Delta: delta})
		})
	}

	for input := 0; input < w.inputs; input++ {
		w.consumedMessages[input].Drain(func(t T, delta int64) {
			*msgs = append(*msgs, progcaster.Delta[T]{Scope: w.index, Port: input, Time: t, Delta: -delta})
		})
	}

	return active
}
