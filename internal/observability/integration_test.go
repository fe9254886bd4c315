package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mikesurface/timely-dataflow/internal/observability"
)

func TestEndToEnd_TraceExported(t *testing.T) {
	t.Parallel()
	// Set up an in-memory span exporter to capture spans.
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("timelydemo")

	// Simulate one tick of the root subgraph pulling two children, then one
	// broadcast round.
	ctx, rootSpan := tracer.Start(context.Background(), "timely.scenario.run")

	_, pullSpan1 := observability.StartPullSpan(ctx, tracer, 0, 1, 1, 0)
	pullSpan1.End()

	_, pullSpan2 := observability.StartPullSpan(ctx, tracer, 1, 0, 0, 1)
	pullSpan2.End()

	_, broadcastSpan := observability.StartBroadcastSpan(ctx, tracer, 3, 2)
	broadcastSpan.End()

	rootSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 4)

	rootTraceID := spans[3].SpanContext.TraceID()
	for _, span := range spans[:3] {
		assert.Equal(t, rootTraceID, span.SpanContext.TraceID(),
			"child span %q should share root trace ID", span.Name)
	}

	spanNames := make([]string, len(spans))
	for i, span := range spans {
		spanNames[i] = span.Name
	}

	assert.Contains(t, spanNames, "timely.scenario.run")
	assert.Contains(t, spanNames, "timely.pull")
	assert.Contains(t, spanNames, "timely.broadcast")

	rootSpanID := spans[3].SpanContext.SpanID()
	for _, span := range spans[:3] {
		assert.Equal(t, rootSpanID, span.Parent.SpanID(),
			"child span %q should have root as parent", span.Name)
	}
}

func TestEndToEnd_MetricsExported(t *testing.T) {
	t.Parallel()
	// Set up an in-memory metric reader.
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("timelydemo")

	pm, err := observability.NewPointstampMetrics(meter)
	require.NoError(t, err)

	ctx := context.Background()

	pm.RecordPull(ctx, "root", 3, 1, 1, time.Millisecond)
	pm.RecordPull(ctx, "child[0]", 1, 0, 0, time.Microsecond*200)
	pm.RecordBroadcastRound(ctx)

	var rm metricdata.ResourceMetrics

	err = reader.Collect(ctx, &rm)
	require.NoError(t, err)

	consumed := findMetric(rm, "timely.pointstamp.messages.consumed.total")
	require.NotNil(t, consumed, "timely.pointstamp.messages.consumed.total metric not found")

	duration := findMetric(rm, "timely.pull.duration.seconds")
	require.NotNil(t, duration, "timely.pull.duration.seconds metric not found")

	rounds := findMetric(rm, "timely.progcaster.rounds.total")
	require.NotNil(t, rounds, "timely.progcaster.rounds.total metric not found")
}
