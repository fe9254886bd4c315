package demo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesurface/timely-dataflow/internal/demo"
)

func TestFeedback_AdvancesTimeByOneStep(t *testing.T) {
	t.Parallel()

	in := demo.NewChannel[uint64, demo.GraphTime]()
	out := demo.NewChannel[uint64, demo.GraphTime]()
	tap := demo.NewChannel[uint64, demo.GraphTime]()
	f := demo.NewFeedback(in, out, tap)

	in.Send(42, at(5))

	pending := f.PullInternalProgress(newCountVec(2), newCountVec(1), newCountVec(2))
	assert.False(t, pending)

	msgs := out.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, uint64(42), msgs[0].Datum)
	assert.Equal(t, at(6), msgs[0].At)

	tapped := tap.Drain()
	require.Len(t, tapped, 1)
	assert.Equal(t, uint64(42), tapped[0].Datum)
	assert.Equal(t, at(6), tapped[0].At)
}

func TestFeedback_ConsumedAndProducedCountsMatch(t *testing.T) {
	t.Parallel()

	in := demo.NewChannel[uint64, demo.GraphTime]()
	out := demo.NewChannel[uint64, demo.GraphTime]()
	tap := demo.NewChannel[uint64, demo.GraphTime]()
	f := demo.NewFeedback(in, out, tap)

	in.Send(1, at(0))
	in.Send(2, at(0))

	internal := newCountVec(2)
	consumed := newCountVec(1)
	produced := newCountVec(2)

	f.PullInternalProgress(internal, consumed, produced)

	elems := consumed[0].Elements()
	require.Len(t, elems, 1)
	assert.Equal(t, int64(2), elems[0].Delta)

	producedElems := produced[0].Elements()
	require.Len(t, producedElems, 1)
	assert.Equal(t, at(1), producedElems[0].Time)
	assert.Equal(t, int64(2), producedElems[0].Delta)

	tapElems := produced[1].Elements()
	require.Len(t, tapElems, 1)
	assert.Equal(t, at(1), tapElems[0].Time)
	assert.Equal(t, int64(2), tapElems[0].Delta)
}

func TestFeedback_DropsMessagesBeyondBound(t *testing.T) {
	t.Parallel()

	in := demo.NewChannel[uint64, demo.GraphTime]()
	out := demo.NewChannel[uint64, demo.GraphTime]()
	tap := demo.NewChannel[uint64, demo.GraphTime]()
	f := demo.NewFeedback(in, out, tap)

	in.Send(1, at(100_000))

	f.PullInternalProgress(newCountVec(2), newCountVec(1), newCountVec(2))

	assert.Empty(t, out.Drain())
	assert.Empty(t, tap.Drain())
}
