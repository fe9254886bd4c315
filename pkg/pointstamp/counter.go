package pointstamp

import "github.com/mikesurface/timely-dataflow/pkg/countmap"

// Counter is the minimal shape PointstampCounter needs from a per-port
// buffer: update a time's delta. Satisfied by *countmap.CountMap[T].
type Counter[T comparable] interface {
	Update(t T, delta int64)
	Drain(f func(t T, delta int64))
	Len() int
}

// PointstampCounter holds the per-(scope,port) and per-graph-port buffers a
// Subgraph drains and refills every pull: counts freshly observed this tick
// (source_counts/target_counts/input_counts) and counts already propagated
// through the summary tables, awaiting delivery to children or the parent
// (target_pushed/output_pushed).
type PointstampCounter[T comparable] struct {
	sourceCounts map[Source]*countmap.CountMap[T]
	targetCounts map[Target]*countmap.CountMap[T]
	inputCounts  map[int]*countmap.CountMap[T]

	targetPushed map[Target]*countmap.CountMap[T]
	outputPushed map[int]*countmap.CountMap[T]
}

// New returns an empty PointstampCounter.
func New[T comparable]() *PointstampCounter[T] {
	return &PointstampCounter[T]{
		sourceCounts: make(map[Source]*countmap.CountMap[T]),
		targetCounts: make(map[Target]*countmap.CountMap[T]),
		inputCounts:  make(map[int]*countmap.CountMap[T]),
		targetPushed: make(map[Target]*countmap.CountMap[T]),
		outputPushed: make(map[int]*countmap.CountMap[T]),
	}
}

// UpdateTarget records a (time, delta) pointstamp destined for a child
// input. target must be a ScopeInput: GraphOutput targets are tracked
// through external_capability instead (spec.md §9 Open Questions), and
// passing one here is a structural violation.
func (c *PointstampCounter[T]) UpdateTarget(target Target, t T, delta int64) {
	if target.IsGraphOutput() {
		panic("pointstamp: UpdateTarget called with a GraphOutput target")
	}

	cm := c.targetCounts[target]
	if cm == nil {
		cm = countmap.New[T]()
		c.targetCounts[target] = cm
	}

	cm.Update(t, delta)
}

// UpdateSource records a (time, delta) pointstamp originating at a source:
// either a child output (ScopeOutput) or the scope's own boundary
// (GraphInput). GraphInput sources are folded into inputCounts, keyed by
// port, since there is no child to attribute them to.
func (c *PointstampCounter[T]) UpdateSource(source Source, t T, delta int64) {
	if source.IsGraphInput() {
		cm := c.inputCounts[source.Port()]
		if cm == nil {
			cm = countmap.New[T]()
			c.inputCounts[source.Port()] = cm
		}

		cm.Update(t, delta)

		return
	}

	cm := c.sourceCounts[source]
	if cm == nil {
		cm = countmap.New[T]()
		c.sourceCounts[source] = cm
	}

	cm.Update(t, delta)
}

// DrainTargetCounts removes and returns every (Target, CountMap) pair with
// pending target counts, for the push_pointstamps_to_targets hot path.
func (c *PointstampCounter[T]) DrainTargetCounts(f func(target Target, cm *countmap.CountMap[T])) {
	for target, cm := range c.targetCounts {
		if cm.Len() == 0 {
			continue
		}

		f(target, cm)
	}

	c.targetCounts = make(map[Target]*countmap.CountMap[T])
}

// DrainSourceCounts removes and returns every (Source, CountMap) pair with
// pending source counts.
func (c *PointstampCounter[T]) DrainSourceCounts(f func(source Source, cm *countmap.CountMap[T])) {
	for source, cm := range c.sourceCounts {
		if cm.Len() == 0 {
			continue
		}

		f(source, cm)
	}

	c.sourceCounts = make(map[Source]*countmap.CountMap[T])
}

// DrainInputCounts removes and returns every (input port, CountMap) pair
// with pending graph-input counts.
func (c *PointstampCounter[T]) DrainInputCounts(f func(port int, cm *countmap.CountMap[T])) {
	for port, cm := range c.inputCounts {
		if cm.Len() == 0 {
			continue
		}

		f(port, cm)
	}

	c.inputCounts = make(map[int]*countmap.CountMap[T])
}

// PushToTarget accumulates a (time, delta) pair into the pushed buffer
// destined for a child input.
func (c *PointstampCounter[T]) PushToTarget(target Target, t T, delta int64) {
	cm := c.targetPushed[target]
	if cm == nil {
		cm = countmap.New[T]()
		c.targetPushed[target] = cm
	}

	cm.Update(t, delta)
}

// PushToOutput accumulates a (time, delta) pair into the pushed buffer
// destined for a graph output (reported up to the parent).
func (c *PointstampCounter[T]) PushToOutput(output int, t T, delta int64) {
	cm := c.outputPushed[output]
	if cm == nil {
		cm = countmap.New[T]()
		c.outputPushed[output] = cm
	}

	cm.Update(t, delta)
}

// TargetPushed returns the pushed buffer for a child input, allocating an
// empty one if absent, so callers can drain it without a nil check.
func (c *PointstampCounter[T]) TargetPushed(target Target) *countmap.CountMap[T] {
	cm := c.targetPushed[target]
	if cm == nil {
		cm = countmap.New[T]()
		c.targetPushed[target] = cm
	}

	return cm
}

// OutputPushed returns the pushed buffer for a graph output, allocating an
// empty one if absent.
func (c *PointstampCounter[T]) OutputPushed(output int) *countmap.CountMap[T] {
	cm := c.outputPushed[output]
	if cm == nil {
		cm = countmap.New[T]()
		c.outputPushed[output] = cm
	}

	return cm
}

// ClearPushed empties every target_pushed and output_pushed buffer. Invariant
// 1 in spec.md §3 requires this after every pull_internal_progress exit.
func (c *PointstampCounter[T]) ClearPushed() {
	for _, cm := range c.targetPushed {
		cm.Clear()
	}

	for _, cm := range c.outputPushed {
		cm.Clear()
	}
}
