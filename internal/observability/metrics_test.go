package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/mikesurface/timely-dataflow/internal/observability"
)

func setupTestMeter(t *testing.T) (*observability.PointstampMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	pm, err := observability.NewPointstampMetrics(meter)
	require.NoError(t, err)

	return pm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func TestPointstampMetrics_RecordPull(t *testing.T) {
	t.Parallel()
	pm, reader := setupTestMeter(t)
	ctx := context.Background()

	pm.RecordPull(ctx, "root", 2, 1, 0, time.Millisecond)

	rm := collectMetrics(t, reader)

	consumed := findMetric(rm, "timely.pointstamp.messages.consumed.total")
	require.NotNil(t, consumed, "timely.pointstamp.messages.consumed.total metric not found")

	duration := findMetric(rm, "timely.pull.duration.seconds")
	require.NotNil(t, duration, "timely.pull.duration.seconds metric not found")
}

func TestPointstampMetrics_SetActiveChildren(t *testing.T) {
	t.Parallel()
	pm, reader := setupTestMeter(t)
	ctx := context.Background()

	pm.SetActiveChildren(ctx, "root", 1)

	rm := collectMetrics(t, reader)

	active := findMetric(rm, "timely.scope.active_children")
	require.NotNil(t, active, "timely.scope.active_children metric not found")

	pm.SetActiveChildren(ctx, "root", -1)

	rm = collectMetrics(t, reader)
	active = findMetric(rm, "timely.scope.active_children")
	require.NotNil(t, active)
}

func TestPointstampMetrics_RecordBroadcastRound(t *testing.T) {
	t.Parallel()
	pm, reader := setupTestMeter(t)
	ctx := context.Background()

	pm.RecordBroadcastRound(ctx)

	rm := collectMetrics(t, reader)

	rounds := findMetric(rm, "timely.progcaster.rounds.total")
	require.NotNil(t, rounds, "timely.progcaster.rounds.total metric not found")
}

func TestPointstampMetrics_HistogramBuckets(t *testing.T) {
	t.Parallel()

	pm, reader := setupTestMeter(t)
	ctx := context.Background()

	pm.RecordPull(ctx, "root", 1, 1, 1, time.Second)

	rm := collectMetrics(t, reader)

	duration := findMetric(rm, "timely.pull.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected Histogram data type")
	require.NotEmpty(t, hist.DataPoints)

	bounds := hist.DataPoints[0].Bounds

	expectedBounds := []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	assert.Equal(t, expectedBounds, bounds, "histogram should use custom bucket boundaries")
}

func TestNewPointstampMetrics_WithNoopMeter(t *testing.T) {
	t.Parallel()
	// Should not panic with a no-op meter.
	cfg := observability.DefaultConfig()

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	pm, err := observability.NewPointstampMetrics(providers.Meter)
	require.NoError(t, err)
	assert.NotNil(t, pm)

	// Should not panic on recording.
	pm.RecordPull(context.Background(), "root", 1, 0, 0, time.Millisecond)
}

func TestPointstampMetrics_NilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var pm *observability.PointstampMetrics

	assert.NotPanics(t, func() {
		pm.RecordPull(context.Background(), "root", 1, 1, 1, time.Millisecond)
		pm.SetActiveChildren(context.Background(), "root", 1)
		pm.RecordBroadcastRound(context.Background())
	})
}
