package subgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// selfLoopProdT is the timestamp every direct child of the internal test
// root graph operates over.
type selfLoopProdT = summary.Product[summary.Unit, summary.Time]

// selfLoopChild is a one-input, one-output scope.Scope test double whose
// declared (input 0, output 0) internal path is whatever advance its caller
// supplies. It never actually does anything on PullInternalProgress — the
// test only exercises set_summaries, the construction-time fixpoint.
type selfLoopChild struct {
	advance summary.PathSummary[selfLoopProdT]
}

func (c *selfLoopChild) Inputs() int    { return 1 }
func (c *selfLoopChild) Outputs() int   { return 1 }
func (c *selfLoopChild) NotifyMe() bool { return true }

func (c *selfLoopChild) GetInternalSummary() ([][]*scope.SummarySet[selfLoopProdT], scope.CountVec[selfLoopProdT]) {
	summaries := [][]*scope.SummarySet[selfLoopProdT]{
		{scope.NewSummarySet[selfLoopProdT]()},
	}
	summaries[0][0].Insert(c.advance)

	return summaries, scope.NewCountVec[selfLoopProdT](1)
}

func (c *selfLoopChild) SetExternalSummary([][]*scope.SummarySet[selfLoopProdT], scope.CountVec[selfLoopProdT]) {
}

func (c *selfLoopChild) PushExternalProgress(scope.CountVec[selfLoopProdT]) {}

func (c *selfLoopChild) PullInternalProgress(_, _, _ scope.CountVec[selfLoopProdT]) bool {
	return false
}

// TestSetSummariesFixpointOnSelfLoop covers S3: a child with a self-loop
// output0 -> input0, whose declared (0,0) internal path is Local(1), must
// converge to exactly source_summaries[child][0] ==
// {(ScopeInput(child,0), {Local(1)})}. Every further composition the
// fixpoint loop tries (Local(2), Local(3), ...) is dominated by the already
// present Local(1) (fewer steps orders first) and discarded by the
// antichain, which is what actually terminates set_summaries here — not the
// Increment's Max field.
func TestSetSummariesFixpointOnSelfLoop(t *testing.T) {
	t.Parallel()

	pc := progcaster.New[selfLoopProdT](nil)
	b := NewGraph[summary.Time](pc, summary.NewIncrement(0))

	advance := summary.Local[summary.Unit, summary.Time](summary.NewIncrement(1))
	child := &selfLoopChild{advance: advance}
	idx := b.AddBoxedScope(child)

	b.Connect(pointstamp.ScopeOutput(idx, 0), pointstamp.ScopeInput(idx, 0))

	sub, _, _ := b.Seal([][]*scope.SummarySet[summary.Unit]{}, scope.NewCountVec[summary.Unit](0))

	entries := sub.sourceSummaries[idx][0]
	require.Len(t, entries, 1, "the self-loop must converge to exactly one reachable target")
	require.Equal(t, pointstamp.ScopeInput(idx, 0), entries[0].Target)

	elems := entries[0].Summary.Elements()
	require.Len(t, elems, 1, "every composed-but-dominated candidate must be discarded, leaving only Local(1)")
	require.Equal(t, summary.PathSummary[selfLoopProdT](advance), elems[0])
}
