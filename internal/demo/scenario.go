package demo

import (
	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
	"github.com/mikesurface/timely-dataflow/pkg/progcaster"
	"github.com/mikesurface/timely-dataflow/pkg/safeconv"
	"github.com/mikesurface/timely-dataflow/pkg/scope"
	"github.com/mikesurface/timely-dataflow/pkg/subgraph"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

// closeAtTick is the inner coordinate original_source/examples/distinct.rs's
// driver advances both inputs to before closing them
// (`input1.advance(&((), 0), &((), 1000000))` / `input1.close_at(...)`).
// feedbackBound (100,000) is what actually terminates the cycling messages
// in practice; closeAtTick only has to be generous enough that the inputs
// never cut the computation off first.
const closeAtTick = 1_000_000

// Scenario wires S1: two inputs feed a nested subgraph containing one
// Distinct operator (deduping stream 1) and one Passthrough operator
// (stream 2 untouched); the subgraph's two outputs are cross-wired through
// a pair of Feedback edges — egress1 (distinct) loops into feedback2,
// egress2 (passthrough) loops into feedback1 — exactly the topology
// original_source/examples/distinct.rs:55-105 builds via `_create_subgraph`
// plus the crossed connect_input calls. Both root-level inputs are advanced
// to ((), 1,000,000) and closed over the scenario's first few ticks,
// mirroring the Rust driver's advance/close_at sequence.
type Scenario struct {
	sub *subgraph.Subgraph[summary.Unit, summary.Time]

	input1 *Input
	input2 *Input

	input1Out *Channel[uint64, GraphTime]
	input2Out *Channel[uint64, GraphTime]

	fb1In, fb1LoopOut, fb1Tap *Channel[uint64, GraphTime]
	fb2In, fb2LoopOut, fb2Tap *Channel[uint64, GraphTime]

	distinctIn, distinctOut *Channel[uint64, SubTime]
	passIn, passOut         *Channel[uint64, SubTime]

	distinctInputCounts *countmap.CountMap[SubTime]
	passInputCounts     *countmap.CountMap[SubTime]
}

// NewScenario builds and seals Scenario with the Rust source's default
// feedback bound, seeding the two values
// original_source/examples/distinct.rs sends at time zero on each stream.
func NewScenario() *Scenario {
	return newScenario(feedbackBound)
}

// NewScenarioWithBound builds Scenario with an explicit feedback bound, so
// tests can exercise the full cross-wired topology and observe it quiesce
// within a small number of ticks instead of feedbackBound's full range.
func NewScenarioWithBound(bound uint64) *Scenario {
	return newScenario(bound)
}

func newScenario(bound uint64) *Scenario {
	pc := progcaster.New[GraphTime](nil)
	root := subgraph.NewGraph[summary.Time](pc, summary.NewIncrement(0))

	input1Out := NewChannel[uint64, GraphTime]()
	input1 := NewInput(input1Out)
	input1Idx := root.AddBoxedScope(input1)

	input2Out := NewChannel[uint64, GraphTime]()
	input2 := NewInput(input2Out)
	input2Idx := root.AddBoxedScope(input2)

	fb1In := NewChannel[uint64, GraphTime]()
	fb1LoopOut := NewChannel[uint64, GraphTime]()
	fb1Tap := NewChannel[uint64, GraphTime]()
	feedback1Idx := root.AddBoxedScope(NewFeedbackWithBound[uint64](fb1In, fb1LoopOut, fb1Tap, bound))

	fb2In := NewChannel[uint64, GraphTime]()
	fb2LoopOut := NewChannel[uint64, GraphTime]()
	fb2Tap := NewChannel[uint64, GraphTime]()
	feedback2Idx := root.AddBoxedScope(NewFeedbackWithBound[uint64](fb2In, fb2LoopOut, fb2Tap, bound))

	childIdx, distinctIn, distinctOut, passIn, passOut, distinctInputCounts, passInputCounts := buildChildSubgraph(root)

	root.Connect(pointstamp.ScopeOutput(input1Idx, 0), pointstamp.ScopeInput(childIdx, 0))
	root.Connect(pointstamp.ScopeOutput(feedback1Idx, 0), pointstamp.ScopeInput(childIdx, 0))

	root.Connect(pointstamp.ScopeOutput(input2Idx, 0), pointstamp.ScopeInput(childIdx, 1))
	root.Connect(pointstamp.ScopeOutput(feedback2Idx, 0), pointstamp.ScopeInput(childIdx, 1))

	// Cross-wire: distinct's egress feeds feedback2, passthrough's egress
	// feeds feedback1 (original_source/examples/distinct.rs:90-97).
	root.Connect(pointstamp.ScopeOutput(childIdx, 0), pointstamp.ScopeInput(feedback2Idx, 0))
	root.Connect(pointstamp.ScopeOutput(childIdx, 1), pointstamp.ScopeInput(feedback1Idx, 0))

	egress1Out := root.NewOutput()
	egress2Out := root.NewOutput()
	tap1Out := root.NewOutput()
	tap2Out := root.NewOutput()

	root.Connect(pointstamp.ScopeOutput(childIdx, 0), pointstamp.GraphOutput(egress1Out))
	root.Connect(pointstamp.ScopeOutput(childIdx, 1), pointstamp.GraphOutput(egress2Out))
	root.Connect(pointstamp.ScopeOutput(feedback1Idx, 1), pointstamp.GraphOutput(tap1Out))
	root.Connect(pointstamp.ScopeOutput(feedback2Idx, 1), pointstamp.GraphOutput(tap2Out))

	sub, _, _ := root.Seal(rootExternalSummaries(4), scope.NewCountVec[summary.Unit](0))

	s := &Scenario{
		sub:                 sub,
		input1:              input1,
		input2:              input2,
		input1Out:           input1Out,
		input2Out:           input2Out,
		fb1In:               fb1In,
		fb1LoopOut:          fb1LoopOut,
		fb1Tap:              fb1Tap,
		fb2In:               fb2In,
		fb2LoopOut:          fb2LoopOut,
		fb2Tap:              fb2Tap,
		distinctIn:          distinctIn,
		distinctOut:         distinctOut,
		passIn:              passIn,
		passOut:             passOut,
		distinctInputCounts: distinctInputCounts,
		passInputCounts:     passInputCounts,
	}

	s.seed()

	return s
}

// rootExternalSummaries builds the root's own external-summary table: the
// root has zero graph inputs (every source is a child Input scope instead),
// so each of the n graph outputs maps to an empty per-input slice.
func rootExternalSummaries(n int) [][]*scope.SummarySet[summary.Unit] {
	out := make([][]*scope.SummarySet[summary.Unit], n)
	for i := range out {
		out[i] = []*scope.SummarySet[summary.Unit]{}
	}

	return out
}

// buildChildSubgraph builds and adds the nested subgraph containing
// Distinct (input 0 -> output 0) and Passthrough (input 1 -> output 1),
// returning its index among root's children plus the real payload channels
// and shared input-message counters Scenario's Tick glues across the
// nesting boundary.
func buildChildSubgraph(root *subgraph.Builder[summary.Unit, summary.Time]) (
	idx int,
	distinctIn, distinctOut *Channel[uint64, SubTime],
	passIn, passOut *Channel[uint64, SubTime],
	distinctInputCounts, passInputCounts *countmap.CountMap[SubTime],
) {
	childPC := progcaster.New[SubTime](nil)
	child := subgraph.NewSubgraph[summary.Unit, summary.Time, summary.Time](root, childPC, summary.NewIncrement(0))

	distinctInputCounts = countmap.New[SubTime]()
	passInputCounts = countmap.New[SubTime]()

	childIn0 := child.NewInput(distinctInputCounts)
	childIn1 := child.NewInput(passInputCounts)
	childOut0 := child.NewOutput()
	childOut1 := child.NewOutput()

	distinctIn = NewChannel[uint64, SubTime]()
	distinctOut = NewChannel[uint64, SubTime]()
	distinctAdvance := summary.Local[GraphTime, summary.Time](summary.NewIncrement(1))
	distinctIdx := child.AddBoxedScope(NewDistinct[SubTime, uint64](distinctIn, distinctOut, distinctAdvance))

	passIn = NewChannel[uint64, SubTime]()
	passOut = NewChannel[uint64, SubTime]()
	passIdentity := summary.Local[GraphTime, summary.Time](summary.NewIncrement(0))
	passIdx := child.AddBoxedScope(NewPassthrough[SubTime, uint64](passIn, passOut, passIdentity))

	child.Connect(pointstamp.GraphInput(childIn0), pointstamp.ScopeInput(distinctIdx, 0))
	child.Connect(pointstamp.ScopeOutput(distinctIdx, 0), pointstamp.GraphOutput(childOut0))

	child.Connect(pointstamp.GraphInput(childIn1), pointstamp.ScopeInput(passIdx, 0))
	child.Connect(pointstamp.ScopeOutput(passIdx, 0), pointstamp.GraphOutput(childOut1))

	idx = root.AddBoxedScope(child.AsScope())

	return idx, distinctIn, distinctOut, passIn, passOut, distinctInputCounts, passInputCounts
}

// seed sends the scenario's two seed values: 1 on stream 1 (the distinct
// side), 2 on stream 2 (the passthrough side), both at tick 0
// (original_source/examples/distinct.rs:99-102's send_messages calls).
func (s *Scenario) seed() {
	s.input1.Send(1)
	s.input2.Send(2)
}

// TickResult reports one PullInternalProgress call's counts, plus the real
// payloads observed crossing the scenario's externally visible points.
type TickResult struct {
	Tick     int
	Consumed int
	Produced int
	Internal int
	Active   bool

	Egress1 []Message[uint64, GraphTime]
	Egress2 []Message[uint64, GraphTime]

	DistinctOut  []Message[uint64, GraphTime]
	FeedbackTaps []Message[uint64, GraphTime]
}

// Tick drives exactly one PullInternalProgress call at the root, then glues
// real payloads across the boundaries the formal Scope contract does not
// carry: into the nested subgraph's Distinct/Passthrough inputs, and back
// out across the cross-wired feedback edges. On tick 1 it advances both
// inputs to closeAtTick; on tick 2 it closes them — the advance-then-close
// sequence original_source/examples/distinct.rs's driver runs once data has
// been sent and pulled once.
func (s *Scenario) Tick(tick int) TickResult {
	switch tick {
	case 1:
		s.input1.AdvanceTo(closeAtTick)
		s.input2.AdvanceTo(closeAtTick)
	case 2:
		s.input1.CloseAt(closeAtTick)
		s.input2.CloseAt(closeAtTick)
	}

	internal := scope.NewCountVec[summary.Unit](4)
	consumed := scope.NewCountVec[summary.Unit](0)
	produced := scope.NewCountVec[summary.Unit](4)

	active := s.sub.PullInternalProgress(internal, consumed, produced)

	s.forwardIntoChild(s.input1Out, s.distinctIn, s.distinctInputCounts)
	s.forwardIntoChild(s.fb1LoopOut, s.distinctIn, s.distinctInputCounts)
	s.forwardIntoChild(s.input2Out, s.passIn, s.passInputCounts)
	s.forwardIntoChild(s.fb2LoopOut, s.passIn, s.passInputCounts)

	egress1 := s.forwardOutOfChild(s.distinctOut, s.fb2In)
	egress2 := s.forwardOutOfChild(s.passOut, s.fb1In)

	taps := append(s.fb1Tap.Drain(), s.fb2Tap.Drain()...)

	return TickResult{
		Tick:     tick,
		Consumed: sumDeltas(consumed),
		Produced: sumDeltas(produced),
		Internal: sumDeltas(internal),
		Active:   active,

		Egress1: egress1,
		Egress2: egress2,

		DistinctOut:  egress1,
		FeedbackTaps: taps,
	}
}

// forwardIntoChild lifts every message drained from src (a root-level
// GraphTime channel) across the nested subgraph's boundary, sending it on
// dst (the SubTime channel the relevant nested operator reads from) and
// registering its arrival on counts — the shared CountMap the child
// subgraph's own graph input reads from, standing in for
// original_source/examples/distinct.rs's ingress nub.
func (s *Scenario) forwardIntoChild(src *Channel[uint64, GraphTime], dst *Channel[uint64, SubTime], counts *countmap.CountMap[SubTime]) {
	for _, msg := range src.Drain() {
		at := enter(msg.At)
		counts.Update(at, 1)
		dst.Send(msg.Datum, at)
	}
}

// forwardOutOfChild drains src (a nested SubTime channel) and forwards each
// message, projected back down to GraphTime, onto dst — the egress half of
// the boundary crossing. It returns the drained messages, projected, for
// the caller to report.
func (s *Scenario) forwardOutOfChild(src *Channel[uint64, SubTime], dst *Channel[uint64, GraphTime]) []Message[uint64, GraphTime] {
	msgs := src.Drain()
	out := make([]Message[uint64, GraphTime], 0, len(msgs))

	for _, msg := range msgs {
		at := leave(msg.At)
		dst.Send(msg.Datum, at)
		out = append(out, Message[uint64, GraphTime]{Datum: msg.Datum, At: at})
	}

	return out
}

// Run drives a Scenario built with the Rust source's default feedback bound
// until it quiesces or maxTicks is reached.
func Run(maxTicks int) []TickResult {
	return RunWithBound(maxTicks, feedbackBound)
}

// RunWithBound drives a Scenario built with bound, returning every tick's
// result in order and stopping early once the root subgraph reports it is
// no longer active.
func RunWithBound(maxTicks int, bound uint64) []TickResult {
	s := newScenario(bound)

	results := make([]TickResult, 0, maxTicks)

	for tick := 0; tick < maxTicks; tick++ {
		r := s.Tick(tick)
		results = append(results, r)

		if !r.Active {
			break
		}
	}

	return results
}

func sumDeltas(cv scope.CountVec[summary.Unit]) int {
	total := 0
	for _, cm := range cv {
		for _, e := range cm.Elements() {
			total += safeconv.MustInt64ToInt(e.Delta)
		}
	}

	return total
}
