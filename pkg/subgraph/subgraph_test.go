package subgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/subgraph"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// prodT is the timestamp every direct child of the root Subgraph operates
// over: the root's own TOuter is summary.Unit, so a child sees
// (Unit, Time).
type prodT = summary.Product[summary.Unit, summary.Time]

// echoEvent describes what a single PullInternalProgress call on echoChild
// should report on its single input/output pair.
type echoEvent struct {
	consumeAt    prodT
	consumeDelta int64
	produceAt    prodT
	produceDelta int64
}

// echoChild is a minimal hand-written scope.Scope[prodT] test double: one
// input, one output, reporting a scripted sequence of events rather than
// doing any real computation.
type echoChild struct {
	notify          bool
	internalSummary summary.PathSummary[prodT]
	initialCapacity []countmap.Entry[prodT]
	queue           []echoEvent
	qi              int
}

func (c *echoChild) Inputs() int    { return 1 }
func (c *echoChild) Outputs() int   { return 1 }
func (c *echoChild) NotifyMe() bool { return c.notify }

func (c *echoChild) GetInternalSummary() ([][]*scope.SummarySet[prodT], scope.CountVec[prodT]) {
	summaries := make([][]*scope.SummarySet[prodT], 1)
	summaries[0] = make([]*scope.SummarySet[prodT], 1)
	summaries[0][0] = scope.NewSummarySet[prodT]()
	summaries[0][0].Insert(c.internalSummary)

	work := scope.NewCountVec[prodT](1)
	for _, e := range c.initialCapacity {
		work[0].Update(e.Time, e.Delta)
	}

	return summaries, work
}

func (c *echoChild) SetExternalSummary([][]*scope.SummarySet[prodT], scope.CountVec[prodT]) {}

func (c *echoChild) PushExternalProgress(scope.CountVec[prodT]) {}

func (c *echoChild) PullInternalProgress(internal, consumed, produced scope.CountVec[prodT]) bool {
	if c.qi >= len(c.queue) {
		return false
	}

	e := c.queue[c.qi]
	c.qi++

	if e.consumeDelta != 0 {
		consumed[0].Update(e.consumeAt, e.consumeDelta)
	}

	if e.produceDelta != 0 {
		produced[0].Update(e.produceAt, e.produceDelta)
	}

	return c.qi < len(c.queue)
}

func identitySummary() summary.PathSummary[prodT] {
	return summary.Local[summary.Unit, summary.Time](summary.NewIncrement(0))
}

// capabilityChild is a zero-input, one-output scope.Scope test double that
// holds an initial capability and, on its dropAtTick-th PullInternalProgress
// call, reports the internal CountVec deltas supplied in drop — letting a
// test script a capability drop (and a replacement capability at a later
// time) deterministically.
type capabilityChild struct {
	tick            int
	initialCapacity []countmap.Entry[prodT]
	dropAtTick      int
	drop            []countmap.Entry[prodT]
}

func (c *capabilityChild) Inputs() int    { return 0 }
func (c *capabilityChild) Outputs() int   { return 1 }
func (c *capabilityChild) NotifyMe() bool { return false }

func (c *capabilityChild) GetInternalSummary() ([][]*scope.SummarySet[prodT], scope.CountVec[prodT]) {
	work := scope.NewCountVec[prodT](1)
	for _, e := range c.initialCapacity {
		work[0].Update(e.Time, e.Delta)
	}

	return [][]*scope.SummarySet[prodT]{}, work
}

func (c *capabilityChild) SetExternalSummary([][]*scope.SummarySet[prodT], scope.CountVec[prodT]) {}
func (c *capabilityChild) PushExternalProgress(scope.CountVec[prodT])                              {}

func (c *capabilityChild) PullInternalProgress(internal, _, _ scope.CountVec[prodT]) bool {
	c.tick++

	if c.tick == c.dropAtTick {
		for _, e := range c.drop {
			internal[0].Update(e.Time, e.Delta)
		}
	}

	return false
}

// captureChild is a one-input, zero-output scope.Scope test double that
// records every guarantee delta it is handed, whether delivered as the
// initial frontier in SetExternalSummary or as a later delta in
// PushExternalProgress, so a test can observe what a downstream sink's
// input frontier actually sees.
type captureChild struct {
	guarantee *countmap.CountMap[prodT]
}

func newCaptureChild() *captureChild {
	return &captureChild{guarantee: countmap.New[prodT]()}
}

func (c *captureChild) Inputs() int    { return 1 }
func (c *captureChild) Outputs() int   { return 0 }
func (c *captureChild) NotifyMe() bool { return true }

func (c *captureChild) GetInternalSummary() ([][]*scope.SummarySet[prodT], scope.CountVec[prodT]) {
	return [][]*scope.SummarySet[prodT]{{}}, scope.NewCountVec[prodT](0)
}

func (c *captureChild) SetExternalSummary(_ [][]*scope.SummarySet[prodT], frontier scope.CountVec[prodT]) {
	frontier[0].Drain(func(t prodT, delta int64) { c.guarantee.Update(t, delta) })
}

func (c *captureChild) PushExternalProgress(changes scope.CountVec[prodT]) {
	changes[0].Drain(func(t prodT, delta int64) { c.guarantee.Update(t, delta) })
}

func (c *captureChild) PullInternalProgress(_, _, _ scope.CountVec[prodT]) bool { return false }

// frontierInnerTimes returns the inner tick of every time currently held
// with a positive net count, the sink's view of its own input frontier.
func (c *captureChild) frontierInnerTimes() []uint64 {
	var out []uint64

	for _, e := range c.guarantee.Elements() {
		if e.Delta > 0 {
			out = append(out, uint64(e.Time.Inner))
		}
	}

	return out
}

func TestSealProducesPerPortSummaryTable(t *testing.T) {
	t.Parallel()

	pc := progcaster.New[prodT](nil)
	b := subgraph.NewGraph[summary.Time](pc, summary.NewIncrement(0))

	sharedIn := countmap.New[prodT]()
	gin := b.NewInput(sharedIn)
	gout := b.NewOutput()

	child := &echoChild{notify: true, internalSummary: identitySummary()}
	childIdx := b.AddBoxedScope(child)

	b.Connect(pointstamp.GraphInput(gin), pointstamp.ScopeInput(childIdx, 0))
	b.Connect(pointstamp.ScopeOutput(childIdx, 0), pointstamp.GraphOutput(gout))

	extSummaries := [][]*scope.SummarySet[summary.Unit]{{scope.NewSummarySet[summary.Unit]()}}
	frontier := scope.NewCountVec[summary.Unit](1)
	frontier[0].Update(summary.Unit{}, 1)

	sub, summaries, work := b.Seal(extSummaries, frontier)

	require.NotNil(t, sub)
	require.Len(t, summaries, 1)
	require.Len(t, summaries[0], 1)
	require.Equal(t, 1, summaries[0][0].Len(), "the graph input should reach the graph output through the identity child summary")
	require.Equal(t, summary.PathSummary[summary.Unit](summary.UnitSummary{}), summaries[0][0].Elements()[0])

	require.Len(t, work, 1)
	require.Equal(t, 0, work[0].Len(), "child reported no initial capability")
}

func TestBuilderPanicsAfterSeal(t *testing.T) {
	t.Parallel()

	pc := progcaster.New[prodT](nil)
	b := subgraph.NewGraph[summary.Time](pc, summary.NewIncrement(0))

	b.Seal(nil, nil)

	require.Panics(t, func() {
		b.NewOutput()
	})
}

func TestMessageForwardingConservesAcrossTicks(t *testing.T) {
	t.Parallel()

	pc := progcaster.New[prodT](nil)
	b := subgraph.NewGraph[summary.Time](pc, summary.NewIncrement(0))

	sharedIn := countmap.New[prodT]()
	gin := b.NewInput(sharedIn)
	gout := b.NewOutput()

	t5 := prodT{Outer: summary.Unit{}, Inner: summary.Time(5)}

	child := &echoChild{
		notify:          true,
		internalSummary: identitySummary(),
		queue: []echoEvent{
			{},
			{consumeAt: t5, consumeDelta: 1, produceAt: t5, produceDelta: 1},
		},
	}
	childIdx := b.AddBoxedScope(child)

	b.Connect(pointstamp.GraphInput(gin), pointstamp.ScopeInput(childIdx, 0))
	b.Connect(pointstamp.ScopeOutput(childIdx, 0), pointstamp.GraphOutput(gout))

	extSummaries := [][]*scope.SummarySet[summary.Unit]{{scope.NewSummarySet[summary.Unit]()}}
	frontier := scope.NewCountVec[summary.Unit](1)
	frontier[0].Update(summary.Unit{}, 1)

	sub, _, _ := b.Seal(extSummaries, frontier)

	sharedIn.Update(t5, 1)

	internal1 := scope.NewCountVec[summary.Unit](1)
	consumed1 := scope.NewCountVec[summary.Unit](1)
	produced1 := scope.NewCountVec[summary.Unit](1)

	active1 := sub.PullInternalProgress(internal1, consumed1, produced1)
	require.True(t, active1, "the arrived message should keep the subgraph active")
	require.Equal(t, 1, consumed1[0].Len())
	require.Equal(t, 0, produced1[0].Len())

	internal2 := scope.NewCountVec[summary.Unit](1)
	consumed2 := scope.NewCountVec[summary.Unit](1)
	produced2 := scope.NewCountVec[summary.Unit](1)

	sub.PullInternalProgress(internal2, consumed2, produced2)

	require.Equal(t, 1, produced2[0].Len())

	elems := produced2[0].Elements()
	require.Equal(t, summary.Unit{}, elems[0].Time)
	require.Equal(t, int64(1), elems[0].Delta)
}

// TestCapabilityDropAdvancesDownstreamFrontier covers S2: a source holds a
// capability at time 5 on output 0, connected directly to a notifying
// sink's input 0; the sink's frontier must expose {5} as soon as the graph
// is sealed. Once the source drops that capability (and picks up one at
// time 10 instead) on its first PullInternalProgress call, the sink's
// frontier must advance to {10}.
func TestCapabilityDropAdvancesDownstreamFrontier(t *testing.T) {
	t.Parallel()

	pc := progcaster.New[prodT](nil)
	b := subgraph.NewGraph[summary.Time](pc, summary.NewIncrement(0))

	t5 := prodT{Outer: summary.Unit{}, Inner: summary.Time(5)}
	t10 := prodT{Outer: summary.Unit{}, Inner: summary.Time(10)}

	source := &capabilityChild{
		initialCapacity: []countmap.Entry[prodT]{{Time: t5, Delta: 1}},
		dropAtTick:      1,
		drop:            []countmap.Entry[prodT]{{Time: t5, Delta: -1}, {Time: t10, Delta: 1}},
	}
	sourceIdx := b.AddBoxedScope(source)

	sink := newCaptureChild()
	sinkIdx := b.AddBoxedScope(sink)

	b.Connect(pointstamp.ScopeOutput(sourceIdx, 0), pointstamp.ScopeInput(sinkIdx, 0))

	sub, _, _ := b.Seal([][]*scope.SummarySet[summary.Unit]{}, scope.NewCountVec[summary.Unit](0))

	require.ElementsMatch(t, []uint64{5}, sink.frontierInnerTimes(), "sink's input frontier must expose the held capability at time 5")

	internal := scope.NewCountVec[summary.Unit](0)
	consumed := scope.NewCountVec[summary.Unit](0)
	produced := scope.NewCountVec[summary.Unit](0)

	sub.PullInternalProgress(internal, consumed, produced)

	require.ElementsMatch(t, []uint64{10}, sink.frontierInnerTimes(), "dropping the capability at 5 must advance the sink's frontier to the next held time")
}
