package subgraph

import (
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// GetInternalSummary seals the subgraph: it is called exactly once, before
// any progress traffic, by the parent that owns this subgraph as a child
// (spec.md §4.2.1). It must not be called a second time.
func (s *Subgraph[TOuter, TInner]) GetInternalSummary() ([][]*scope.SummarySet[TOuter], scope.CountVec[TOuter]) {
	for idx, child := range s.children {
		s.sourceSummaries = append(s.sourceSummaries, make([][]summaryEntry[summary.Product[TOuter, TInner]], child.outputs))
		s.targetSummaries = append(s.targetSummaries, make([][]summaryEntry[summary.Product[TOuter, TInner]], child.inputs))

		for output := 0; output < child.outputs; output++ {
			for _, t := range child.capabilities[output].Frontier() {
				s.pointstamps.UpdateSource(pointstamp.ScopeOutput(idx, output), t, 1)
			}
		}
	}

	s.inputSummaries = make([][]summaryEntry[summary.Product[TOuter, TInner]], s.inputs)

	s.externalSummaries = make([][]*scope.SummarySet[TOuter], s.outputs)
	for output := range s.externalSummaries {
		s.externalSummaries[output] = make([]*scope.SummarySet[TOuter], s.inputs)
		for input := range s.externalSummaries[output] {
			s.externalSummaries[output][input] = scope.NewSummarySet[TOuter]()
		}
	}

	s.setSummaries()
	s.pushPointstampsToTargets()

	work := scope.NewCountVec[TOuter](s.outputs)

	for output := 0; output < s.outputs; output++ {
		s.pointstamps.OutputPushed(output).Drain(func(t summary.Product[TOuter, TInner], val int64) {
			work[output].Update(t.Outer, val)
			s.externalCapability[output].Update(t.Outer, val, func(TOuter, int64) {})
		})
	}

	summaries := make([][]*scope.SummarySet[TOuter], s.inputs)
	for input := range summaries {
		summaries[input] = make([]*scope.SummarySet[TOuter], s.outputs)
		for output := range summaries[input] {
			summaries[input][output] = scope.NewSummarySet[TOuter]()
		}
	}

	for input := 0; input < s.inputs; input++ {
		for _, entry := range s.inputSummaries[input] {
			if !entry.Target.IsGraphOutput() {
				continue
			}

			output := entry.Target.Port()

			for _, sm := range entry.Summary.Elements() {
				ps, ok := sm.(summary.ProductSummary[TOuter, TInner])
				if !ok {
					panic("subgraph: expected ProductSummary, got incompatible PathSummary implementation")
				}

				var outerComponent summary.PathSummary[TOuter]
				if ps.IsLocal() {
					outerComponent = s.identityOuterSummary
				} else {
					outerComponent = ps.OuterPart()
				}

				summaries[input][output].Insert(outerComponent)
			}
		}
	}

	s.pointstamps.ClearPushed()

	return summaries, work
}

// SetExternalSummary is called exactly once, immediately after
// GetInternalSummary, delivering how each output ultimately reaches each
// input through the outside world plus the initial external guarantee on
// each input (spec.md §4.2.2).
func (s *Subgraph[TOuter, TInner]) SetExternalSummary(summaries [][]*scope.SummarySet[TOuter], frontier scope.CountVec[TOuter]) {
	s.externalSummaries = summaries
	s.setSummaries()

	for input := 0; input < s.inputs; input++ {
		var zeroInner TInner

		frontier[input].Drain(func(t TOuter, val int64) {
			s.pointstamps.UpdateSource(pointstamp.GraphInput(input), summary.Product[TOuter, TInner]{Outer: t, Inner: zeroInner}, val)
		})
	}

	for idx, child := range s.children {
		for output := 0; output < child.outputs; output++ {
			for _, t := range child.capabilities[output].Frontier() {
				s.pointstamps.UpdateSource(pointstamp.ScopeOutput(idx, output), t, 1)
			}
		}
	}

	s.pushPointstampsToTargets()

	for idx, child := range s.children {
		changes := child.guaranteeChanges

		if child.notify {
			for inputPort := 0; inputPort < child.inputs; inputPort++ {
				child.guarantees[inputPort].UpdateIntoCountMap(s.pointstamps.TargetPushed(pointstamp.ScopeInput(idx, inputPort)), changes[inputPort])
			}
		}

		childSummaries := make([][]*scope.SummarySet[summary.Product[TOuter, TInner]], child.outputs)
		for output := range childSummaries {
			childSummaries[output] = make([]*scope.SummarySet[summary.Product[TOuter, TInner]], child.inputs)
			for input := range childSummaries[output] {
				childSummaries[output][input] = scope.NewSummarySet[summary.Product[TOuter, TInner]]()
			}
		}

		for output := 0; output < child.outputs; output++ {
			for _, entry := range s.sourceSummaries[idx][output] {
				if !entry.Target.IsGraphOutput() && entry.Target.Scope() == idx {
					childSummaries[output][entry.Target.Port()] = entry.Summary.Clone()
				}
			}
		}

		child.child.SetExternalSummary(childSummaries, changes)

		for _, c := range changes {
			c.Clear()
		}
	}

	s.pointstamps.ClearPushed()
}

// PushExternalProgress delivers the delta of the frontier guaranteed on
// each graph input, forwarding the consequences to every child that wants
// notification (spec.md §4.2.5).
func (s *Subgraph[TOuter, TInner]) PushExternalProgress(externalProgress scope.CountVec[TOuter]) {
	for input := 0; input < s.inputs; input++ {
		var zeroInner TInner

		externalProgress[input].Drain(func(t TOuter, val int64) {
			s.pointstamps.UpdateSource(pointstamp.GraphInput(input), summary.Product[TOuter, TInner]{Outer: t, Inner: zeroInner}, val)
		})
	}

	s.pushPointstampsToTargets()

	for idx, child := range s.children {
		child.pushPointstamps(s.childTargetPushed(idx))
	}

	s.pointstamps.ClearPushed()
}

// PullInternalProgress is the steady-state tick: it drains freshly arrived
// input messages, pulls every child for its own progress, exchanges the
// resulting pointstamp batches with peer workers, absorbs them into
// outstanding_messages/capabilities, and propagates the resulting frontier
// deltas to children and up to the parent (spec.md §4.2.6).
func (s *Subgraph[TOuter, TInner]) PullInternalProgress(internalProgress, messagesConsumed, messagesProduced scope.CountVec[TOuter]) bool {
	active := false

	for input := 0; input < s.inputs; input++ {
		s.inputMessages[input].Drain(func(t summary.Product[TOuter, TInner], delta int64) {
			messagesConsumed[input].Update(t.Outer, delta)

			for _, target := range s.inputEdges[input] {
				if target.IsGraphOutput() {
					messagesProduced[target.Port()].Update(t.Outer, delta)
				} else {
					s.pointstampMessages = append(s.pointstampMessages, progcaster.Delta[summary.Product[TOuter, TInner]]{
						Scope: target.Scope(), Port: target.Port(), Time: t, Delta: delta,
					})
				}
			}
		})
	}

	for _, child := range s.children {
		subactive := child.pullPointstamps(&s.pointstampMessages, &s.pointstampInternal, func(output int, t summary.Product[TOuter, TInner], delta int64) {
			messagesProduced[output].Update(t.Outer, delta)
		})

		if subactive {
			active = true
		}
	}

	if err := s.progcaster.SendAndRecv(&s.pointstampMessages, &s.pointstampInternal); err != nil {
		panic(err) // Communicator failure is fatal to the scope (spec.md §7)
	}

	s.pointstampMessages = compact(s.pointstampMessages)
	s.pointstampInternal = compact(s.pointstampInternal)

	for _, d := range s.pointstampMessages {
		s.children[d.Scope].outstandingMessages[d.Port].Update(d.Time, d.Delta, func(t summary.Product[TOuter, TInner], delta int64) {
			s.pointstamps.UpdateTarget(pointstamp.ScopeInput(d.Scope, d.Port), t, delta)
		})
	}

	s.pointstampMessages = s.pointstampMessages[:0]

	for _, d := range s.pointstampInternal {
		s.children[d.Scope].capabilities[d.Port].Update(d.Time, d.Delta, func(t summary.Product[TOuter, TInner], delta int64) {
			s.pointstamps.UpdateSource(pointstamp.ScopeOutput(d.Scope, d.Port), t, delta)
		})
	}

	s.pointstampInternal = s.pointstampInternal[:0]

	s.pushPointstampsToTargets()

	for idx, child := range s.children {
		child.pushPointstamps(s.childTargetPushed(idx))
	}

	for output := 0; output < s.outputs; output++ {
		s.pointstamps.OutputPushed(output).Drain(func(t summary.Product[TOuter, TInner], val int64) {
			s.externalCapability[output].Update(t.Outer, val, func(to TOuter, v int64) {
				internalProgress[output].Update(to, v)
			})
		})
	}

	s.pointstamps.ClearPushed()

	for _, child := range s.children {
		for _, oc := range child.outstandingMessages {
			if !oc.Empty() {
				active = true
			}
		}

		for _, c := range child.capabilities {
			if !c.Empty() {
				active = true
			}
		}
	}

	return active
}

// childTargetPushed collects the pushed buffers destined for child idx's
// inputs into a CountVec, the shape ScopeWrapper.pushPointstamps expects.
func (s *Subgraph[TOuter, TInner]) childTargetPushed(idx int) scope.CountVec[summary.Product[TOuter, TInner]] {
	child := s.children[idx]
	out := make(scope.CountVec[summary.Product[TOuter, TInner]], child.inputs)

	for input := range out {
		out[input] = s.pointstamps.TargetPushed(pointstamp.ScopeInput(idx, input))
	}

	return out
}
