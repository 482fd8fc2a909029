package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics.
type Metrics struct {
	meter metric.Meter

	// HTTP metrics
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Trigger metrics
	TriggersTotal   metric.Int64Counter
	TriggerDuration metric.Float64Histogram
	ContainersTotal metric.Int64Counter

	// Report notifier metrics
	NotifierDuration  metric.Float64Histogram
	NotifierDelivered metric.Int64Counter
	NotifierFailed    metric.Int64Counter
	NotifierDropped   metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("spider-trigger")
	m := &Metrics{meter: meter}

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Trigger metrics
	m.TriggersTotal, err = meter.Int64Counter(
		"spider_triggers_total",
		metric.WithDescription("Total number of trigger invocations by outcome"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Image pulls dominate the upper buckets.
	m.TriggerDuration, err = meter.Float64Histogram(
		"spider_trigger_duration_seconds",
		metric.WithDescription("Trigger invocation latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ContainersTotal, err = meter.Int64Counter(
		"spider_containers_total",
		metric.WithDescription("Container records written, by status"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Notifier metrics
	m.NotifierDuration, err = meter.Float64Histogram(
		"notifier_duration_seconds",
		metric.WithDescription("Report delivery latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierDelivered, err = meter.Int64Counter(
		"notifier_delivered_total",
		metric.WithDescription("Total reports successfully delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierFailed, err = meter.Int64Counter(
		"notifier_failed_total",
		metric.WithDescription("Total reports failed after retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierDropped, err = meter.Int64Counter(
		"notifier_dropped_total",
		metric.WithDescription("Total reports dropped because the buffer was full"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordTrigger records one completed trigger invocation.
// An empty outcome means success.
func (m *Metrics) RecordTrigger(ctx context.Context, outcome string, durationSeconds float64) {
	attrs := metric.WithAttributes(outcomeAttr(outcome))
	m.TriggersTotal.Add(ctx, 1, attrs)
	m.TriggerDuration.Record(ctx, durationSeconds, attrs)
}

// RecordContainerStatus records a container record entering status.
func (m *Metrics) RecordContainerStatus(ctx context.Context, status string) {
	m.ContainersTotal.Add(ctx, 1, metric.WithAttributes(containerStatusAttr(status)))
}

// RecordNotifierDelivered records a successful report delivery with its duration.
func (m *Metrics) RecordNotifierDelivered(ctx context.Context, durationSeconds float64) {
	m.NotifierDelivered.Add(ctx, 1)
	m.NotifierDuration.Record(ctx, durationSeconds)
}

// RecordNotifierFailed records a failed report delivery.
func (m *Metrics) RecordNotifierFailed(ctx context.Context) {
	m.NotifierFailed.Add(ctx, 1)
}

// RecordNotifierDropped records a dropped report.
func (m *Metrics) RecordNotifierDropped(ctx context.Context) {
	m.NotifierDropped.Add(ctx, 1)
}
