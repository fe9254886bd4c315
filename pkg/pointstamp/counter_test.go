package pointstamp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikesurface/timely-dataflow/pkg/countmap"
	"github.com/mikesurface/timely-dataflow/pkg/pointstamp"
)

func TestUpdateTargetRejectsGraphOutput(t *testing.T) {
	t.Parallel()

	c := pointstamp.New[int]()

	assert.Panics(t, func() {
		c.UpdateTarget(pointstamp.GraphOutput(0), 1, 1)
	})
}

func TestUpdateTargetAccumulatesPerScopeInput(t *testing.T) {
	t.Parallel()

	c := pointstamp.New[int]()
	target := pointstamp.ScopeInput(2, 0)

	c.UpdateTarget(target, 5, 1)
	c.UpdateTarget(target, 5, 2)

	seen := map[pointstamp.Target]int64{}
	c.DrainTargetCounts(func(tg pointstamp.Target, cm *countmap.CountMap[int]) {
		cm.Drain(func(time int, delta int64) {
			assert.Equal(t, 5, time)
			seen[tg] += delta
		})
	})

	assert.Equal(t, int64(3), seen[target])
}

func TestUpdateSourceSplitsGraphInputFromScopeOutput(t *testing.T) {
	t.Parallel()

	c := pointstamp.New[int]()

	c.UpdateSource(pointstamp.GraphInput(0), 1, 1)
	c.UpdateSource(pointstamp.ScopeOutput(1, 0), 2, 1)

	gotInput := false
	c.DrainInputCounts(func(port int, cm *countmap.CountMap[int]) {
		assert.Equal(t, 0, port)
		gotInput = true
	})
	assert.True(t, gotInput)

	gotSource := false
	c.DrainSourceCounts(func(source pointstamp.Source, cm *countmap.CountMap[int]) {
		assert.Equal(t, 1, source.Scope())
		gotSource = true
	})
	assert.True(t, gotSource)
}

func TestClearPushedEmptiesAllBuffers(t *testing.T) {
	t.Parallel()

	c := pointstamp.New[int]()
	target := pointstamp.ScopeInput(0, 0)

	c.PushToTarget(target, 1, 1)
	c.PushToOutput(0, 1, 1)

	c.ClearPushed()

	assert.Equal(t, 0, c.TargetPushed(target).Len())
	assert.Equal(t, 0, c.OutputPushed(0).Len())
}
