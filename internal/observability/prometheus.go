package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusHandler creates a Prometheus metrics exporter and a MeterProvider
// backed by it, returning an [http.Handler] that serves the /metrics scrape
// endpoint. Callers derive a Meter from the returned provider (e.g. for
// NewPointstampMetrics) so instruments registered against it actually surface
// on the handler. Each call creates an independent Prometheus registry to
// avoid collector conflicts when called multiple times.
func PrometheusHandler() (http.Handler, *metric.MeterProvider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(metric.WithReader(exporter))

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), mp, nil
}
