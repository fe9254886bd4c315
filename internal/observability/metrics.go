package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricMessagesConsumedTotal = "timely.pointstamp.messages.consumed.total"
	metricMessagesProducedTotal = "timely.pointstamp.messages.produced.total"
	metricInternalDeltasTotal   = "timely.pointstamp.internal.total"
	metricPullDuration          = "timely.pull.duration.seconds"
	metricActiveChildren        = "timely.scope.active_children"
	metricBroadcastRounds       = "timely.progcaster.rounds.total"

	attrScope = "scope"
)

// pullDurationBucketBoundaries covers sub-millisecond ticks (tight fixpoint
// loops) up to multi-second ticks dominated by an exchange round.
var pullDurationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// PointstampMetrics holds the OTel instruments recording the volume of
// pointstamp traffic a Subgraph absorbs and emits, and how long each
// PullInternalProgress tick takes.
type PointstampMetrics struct {
	messagesConsumed metric.Int64Counter
	messagesProduced metric.Int64Counter
	internalDeltas   metric.Int64Counter
	pullDuration     metric.Float64Histogram
	activeChildren   metric.Int64UpDownCounter
	broadcastRounds  metric.Int64Counter
}

// NewPointstampMetrics creates PointstampMetrics instruments from the given meter.
func NewPointstampMetrics(mt metric.Meter) (*PointstampMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PointstampMetrics{
		messagesConsumed: b.counter(metricMessagesConsumedTotal, "Pointstamp messages absorbed from ports", "{message}"),
		messagesProduced: b.counter(metricMessagesProducedTotal, "Pointstamp messages emitted to ports", "{message}"),
		internalDeltas:   b.counter(metricInternalDeltasTotal, "Internal capability deltas reported by children", "{delta}"),
		pullDuration:     b.histogram(metricPullDuration, "PullInternalProgress tick duration in seconds", "s", pullDurationBucketBoundaries...),
		activeChildren:   b.upDownCounter(metricActiveChildren, "Children that reported themselves active on the last tick", "{child}"),
		broadcastRounds:  b.counter(metricBroadcastRounds, "Progcaster exchange rounds completed", "{round}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordPull records one PullInternalProgress tick for the named scope.
// Safe to call on a nil receiver (no-op), so callers need not guard every
// call site when metrics are disabled.
func (pm *PointstampMetrics) RecordPull(ctx context.Context, scope string, consumed, produced, internal int, duration time.Duration) {
	if pm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrScope, scope))

	pm.messagesConsumed.Add(ctx, int64(consumed), attrs)
	pm.messagesProduced.Add(ctx, int64(produced), attrs)
	pm.internalDeltas.Add(ctx, int64(internal), attrs)
	pm.pullDuration.Record(ctx, duration.Seconds(), attrs)
}

// SetActiveChildren reports the delta in currently-active children for a scope.
func (pm *PointstampMetrics) SetActiveChildren(ctx context.Context, scope string, delta int64) {
	if pm == nil {
		return
	}

	pm.activeChildren.Add(ctx, delta, metric.WithAttributes(attribute.String(attrScope, scope)))
}

// RecordBroadcastRound records one completed Progcaster exchange round.
func (pm *PointstampMetrics) RecordBroadcastRound(ctx context.Context) {
	if pm == nil {
		return
	}

	pm.broadcastRounds.Add(ctx, 1)
}
