// Package subgraph implements the recursive scope container: ScopeWrapper
// (per-child bookkeeping) and Subgraph (the scope itself), which together
// are roughly 40% of the progress-tracking core (spec.md §2).
package subgraph

import (
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
)

// compactKey groups a progcaster.Delta's (scope, port, time) for
// compaction through a CountMap, collapsing duplicate entries from
// different workers before re-expanding to a flat slice
// (spec.md §4.2.6 phase 3).
type compactKey[T comparable] struct {
	Scope int
	Port  int
	Time  T
}

// compact sums duplicate (scope, port, time) entries, dropping any that
// cancel to zero.
func compact[T comparable](in []progcaster.Delta[T]) []progcaster.Delta[T] {
	cm := countmap.New[compactKey[T]]()

	for _, d := range in {
		cm.Update(compactKey[T]{Scope: d.Scope, Port: d.Port, Time: d.Time}, d.Delta)
	}

	out := make([]progcaster.Delta[T], 0, cm.Len())
	cm.Drain(func(k compactKey[T], delta int64) {
		out = append(out, progcaster.Delta[T]{Scope: k.Scope, Port: k.Port, Time: k.Time, Delta: delta})
	})

	return out
}
