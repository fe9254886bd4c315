package subgraph

import (
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// reachable pairs a source this subgraph can expand from with the summary
// of the path already traversed to reach it.
type reachable[T any] struct {
	Source  pointstamp.Source
	Summary summary.PathSummary[T]
}

// targetToSources expands a single hop backwards from target: a graph
// output reaches back through every external path into every graph input;
// a child input reaches back through the child's own internal summary
// table into each of that child's outputs (spec.md §4.2.3).
func (s *Subgraph[TOuter, TInner]) targetToSources(target pointstamp.Target) []reachable[summary.Product[TOuter, TInner]] {
	var out []reachable[summary.Product[TOuter, TInner]]

	if target.IsGraphOutput() {
		output := target.Port()

		for input := 0; input < s.inputs; input++ {
			for _, sm := range s.externalSummaries[output][input].Elements() {
				out = append(out, reachable[summary.Product[TOuter, TInner]]{
					Source:  pointstamp.GraphInput(input),
					Summary: summary.OuterSummary[TOuter, TInner](sm, s.identityInnerSummary),
				})
			}
		}

		return out
	}

	childIdx, port := target.Scope(), target.Port()
	child := s.children[childIdx]

	for output := 0; output < child.outputs; output++ {
		for _, sm := range child.summary[port][output].Elements() {
			out = append(out, reachable[summary.Product[TOuter, TInner]]{
				Source:  pointstamp.ScopeOutput(childIdx, output),
				Summary: sm,
			})
		}
	}

	return out
}

// tryToAddSummary inserts s into the antichain recorded for target within
// entries, appending a fresh (target, {s}) entry if target isn't present
// yet. Returns whether entries changed.
func tryToAddSummary[T any](entries *[]summaryEntry[T], target pointstamp.Target, s summary.PathSummary[T]) bool {
	for i := range *entries {
		if (*entries)[i].Target == target {
			return (*entries)[i].Summary.Insert(s)
		}
	}

	fresh := scope.NewSummarySet[T]()
	fresh.Insert(s)
	*entries = append(*entries, summaryEntry[T]{Target: target, Summary: fresh})

	return true
}

// setSummaries recomputes source_summaries, input_summaries and
// target_summaries to a fixpoint of the edge-and-internal-summary relation
// (spec.md §4.2.3, invariant 5). It is safe to call repeatedly: each call
// reseeds from direct edges and internal summaries before iterating.
func (s *Subgraph[TOuter, TInner]) setSummaries() {
	for idx, child := range s.children {
		for output := 0; output < child.outputs; output++ {
			var entries []summaryEntry[summary.Product[TOuter, TInner]]

			for _, target := range child.edges[output] {
				if !target.IsGraphOutput() && !s.children[target.Scope()].notify {
					continue
				}

				fresh := scope.NewSummarySet[summary.Product[TOuter, TInner]]()
				fresh.Insert(s.defaultSummary())
				entries = append(entries, summaryEntry[summary.Product[TOuter, TInner]]{Target: target, Summary: fresh})
			}

			s.sourceSummaries[idx][output] = entries
		}
	}

	for input := 0; input < s.inputs; input++ {
		var entries []summaryEntry[summary.Product[TOuter, TInner]]

		for _, target := range s.inputEdges[input] {
			if !target.IsGraphOutput() && !s.children[target.Scope()].notify {
				continue
			}

			fresh := scope.NewSummarySet[summary.Product[TOuter, TInner]]()
			fresh.Insert(s.defaultSummary())
			entries = append(entries, summaryEntry[summary.Product[TOuter, TInner]]{Target: target, Summary: fresh})
		}

		s.inputSummaries[input] = entries
	}

	for {
		done := true

		for idx, child := range s.children {
			for output := 0; output < child.outputs; output++ {
				for _, target := range child.edges[output] {
					if s.expandOneHop(&s.sourceSummaries[idx][output], target) {
						done = false
					}
				}
			}
		}

		for input := 0; input < s.inputs; input++ {
			for _, target := range s.inputEdges[input] {
				if s.expandOneHop(&s.inputSummaries[input], target) {
					done = false
				}
			}
		}

		if done {
			break
		}
	}

	for idx, child := range s.children {
		for input := 0; input < child.inputs; input++ {
			var entries []summaryEntry[summary.Product[TOuter, TInner]]

			tryToAddSummary(&entries, pointstamp.ScopeInput(idx, input), s.defaultSummary())
			s.expandOneHop(&entries, pointstamp.ScopeInput(idx, input))

			s.targetSummaries[idx][input] = entries
		}
	}
}

// expandOneHop expands target one hop further back via targetToSources,
// composing each reachable source's already-finalized source_summaries into
// dest. Returns whether dest changed.
func (s *Subgraph[TOuter, TInner]) expandOneHop(dest *[]summaryEntry[summary.Product[TOuter, TInner]], target pointstamp.Target) bool {
	changed := false

	for _, next := range s.targetToSources(target) {
		if next.Source.IsGraphInput() {
			continue
		}

		nextScope, nextOutput := next.Source.Scope(), next.Source.Port()

		for _, reached := range s.sourceSummaries[nextScope][nextOutput] {
			for _, sm := range reached.Summary.Elements() {
				candidate := next.Summary.FollowedBy(sm)
				if tryToAddSummary(dest, reached.Target, candidate) {
					changed = true
				}
			}
		}
	}

	return changed
}

// pushPointstampsToTargets drains every pending target/source/input count
// and forwards it through the corresponding summary table, accumulating the
// result in the pushed buffers keyed by destination (spec.md §4.2.4). This
// is the hot path: pure forward propagation of count deltas through
// precomputed multi-hop reachability.
func (s *Subgraph[TOuter, TInner]) pushPointstampsToTargets() {
	s.pointstamps.DrainTargetCounts(func(target pointstamp.Target, cm *countmap.CountMap[summary.Product[TOuter, TInner]]) {
		entries := s.targetSummaries[target.Scope()][target.Port()]
		s.forwardThrough(cm, entries)
	})

	s.pointstamps.DrainSourceCounts(func(source pointstamp.Source, cm *countmap.CountMap[summary.Product[TOuter, TInner]]) {
		entries := s.sourceSummaries[source.Scope()][source.Port()]
		s.forwardThrough(cm, entries)
	})

	s.pointstamps.DrainInputCounts(func(port int, cm *countmap.CountMap[summary.Product[TOuter, TInner]]) {
		entries := s.inputSummaries[port]
		s.forwardThrough(cm, entries)
	})
}

func (s *Subgraph[TOuter, TInner]) forwardThrough(
	cm *countmap.CountMap[summary.Product[TOuter, TInner]],
	entries []summaryEntry[summary.Product[TOuter, TInner]],
) {
	cm.Drain(func(t summary.Product[TOuter, TInner], value int64) {
		for _, entry := range entries {
			for _, sm := range entry.Summary.Elements() {
				next, ok := sm.ResultsIn(t)
				if !ok {
					continue
				}

				if entry.Target.IsGraphOutput() {
					s.pointstamps.PushToOutput(entry.Target.Port(), next, value)
				} else {
					s.pointstamps.PushToTarget(entry.Target, next, value)
				}
			}
		}
	})
}
