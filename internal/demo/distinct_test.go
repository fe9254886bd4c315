package demo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesurface/timely-dataflow/internal/demo"
	"github.com/mikesurface/timely-dataflow/pkg/summary"
)

func distinctAdvance() summary.PathSummary[demo.GraphTime] {
	return summary.Local[summary.Unit, summary.Time](summary.NewIncrement(1))
}

func TestDistinct_DuplicatesWithinATimeCollapseToOne(t *testing.T) {
	t.Parallel()

	in := demo.NewChannel[uint64, demo.GraphTime]()
	out := demo.NewChannel[uint64, demo.GraphTime]()
	d := demo.NewDistinct[demo.GraphTime, uint64](in, out, distinctAdvance())

	in.Send(1, at(0))
	in.Send(1, at(0))
	in.Send(2, at(0))

	internal := newCountVec(1)
	consumed := newCountVec(1)
	produced := newCountVec(1)

	pending := d.PullInternalProgress(internal, consumed, produced)
	require.True(t, pending, "the held time should not flush on the same tick it was acquired")
	assert.Empty(t, out.Drain())

	internal = newCountVec(1)
	consumed = newCountVec(1)
	produced = newCountVec(1)

	pending = d.PullInternalProgress(internal, consumed, produced)
	assert.False(t, pending)

	msgs := out.Drain()
	require.Len(t, msgs, 2)

	seen := map[uint64]bool{}
	for _, m := range msgs {
		seen[m.Datum] = true
	}

	assert.True(t, seen[1])
	assert.True(t, seen[2])
}

func TestDistinct_DistinctTimesAreIndependent(t *testing.T) {
	t.Parallel()

	in := demo.NewChannel[uint64, demo.GraphTime]()
	out := demo.NewChannel[uint64, demo.GraphTime]()
	d := demo.NewDistinct[demo.GraphTime, uint64](in, out, distinctAdvance())

	in.Send(1, at(0))
	d.PullInternalProgress(newCountVec(1), newCountVec(1), newCountVec(1))
	d.PullInternalProgress(newCountVec(1), newCountVec(1), newCountVec(1))

	msgs := out.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, at(0), msgs[0].At)

	in.Send(1, at(1))
	d.PullInternalProgress(newCountVec(1), newCountVec(1), newCountVec(1))
	pending := d.PullInternalProgress(newCountVec(1), newCountVec(1), newCountVec(1))
	assert.False(t, pending)

	msgs = out.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, at(1), msgs[0].At)
}
