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

// Metrics holds all pipeline metrics:
// - Latency: step and callback delivery durations
// - Traffic: steps run, reports and archives published
// - Errors: step failures, publish failures, delivery failures
type Metrics struct {
	meter metric.Meter

	// Step metrics
	StepDuration    metric.Float64Histogram
	StepsTotal      metric.Int64Counter
	StepErrorsTotal metric.Int64Counter

	// Publisher metrics
	PublishesTotal     metric.Int64Counter
	PublishErrorsTotal metric.Int64Counter
	PublishSkipsTotal  metric.Int64Counter

	// Dispatcher metrics
	DispatcherDuration  metric.Float64Histogram
	DispatcherDelivered metric.Int64Counter
	DispatcherFailed    metric.Int64Counter
	DispatcherDropped   metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("nightly")
	m := &Metrics{meter: meter}

	// Step metrics
	m.StepDuration, err = meter.Float64Histogram(
		"nightly_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StepsTotal, err = meter.Int64Counter(
		"nightly_steps_total",
		metric.WithDescription("Total pipeline steps executed"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StepErrorsTotal, err = meter.Int64Counter(
		"nightly_step_errors_total",
		metric.WithDescription("Total pipeline steps that failed"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Publisher metrics
	m.PublishesTotal, err = meter.Int64Counter(
		"nightly_publishes_total",
		metric.WithDescription("Total report archives published"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PublishErrorsTotal, err = meter.Int64Counter(
		"nightly_publish_errors_total",
		metric.WithDescription("Total failed publish attempts"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PublishSkipsTotal, err = meter.Int64Counter(
		"nightly_publish_skips_total",
		metric.WithDescription("Total publish runs skipped because no marker file existed"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Dispatcher metrics
	m.DispatcherDuration, err = meter.Float64Histogram(
		"nightly_dispatcher_duration_seconds",
		metric.WithDescription("Callback delivery latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherDelivered, err = meter.Int64Counter(
		"nightly_dispatcher_delivered_total",
		metric.WithDescription("Total events successfully delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherFailed, err = meter.Int64Counter(
		"nightly_dispatcher_failed_total",
		metric.WithDescription("Total events failed after retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherDropped, err = meter.Int64Counter(
		"nightly_dispatcher_dropped_total",
		metric.WithDescription("Total events dropped (buffer full or open circuit)"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordStepCompleted records a pipeline step finishing (success or failure).
func (m *Metrics) RecordStepCompleted(ctx context.Context, machine, step string, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(machineAttr(machine), stepAttr(step), successAttr(success))
	m.StepDuration.Record(ctx, durationSeconds, attrs)
	m.StepsTotal.Add(ctx, 1, attrs)

	if !success {
		m.StepErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordPublish records a publish run outcome.
func (m *Metrics) RecordPublish(ctx context.Context, machine string, success bool) {
	attrs := metric.WithAttributes(machineAttr(machine), successAttr(success))
	m.PublishesTotal.Add(ctx, 1, attrs)
	if !success {
		m.PublishErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordPublishSkipped records a publish run that found no marker file.
func (m *Metrics) RecordPublishSkipped(ctx context.Context, machine string) {
	m.PublishSkipsTotal.Add(ctx, 1, metric.WithAttributes(machineAttr(machine)))
}

// RecordDispatcherDelivered records a successful event delivery with its duration.
func (m *Metrics) RecordDispatcherDelivered(ctx context.Context, durationSeconds float64) {
	m.DispatcherDelivered.Add(ctx, 1)
	m.DispatcherDuration.Record(ctx, durationSeconds)
}

// RecordDispatcherFailed records a failed event delivery.
func (m *Metrics) RecordDispatcherFailed(ctx context.Context) {
	m.DispatcherFailed.Add(ctx, 1)
}

// RecordDispatcherDropped records a dropped event.
func (m *Metrics) RecordDispatcherDropped(ctx context.Context) {
	m.DispatcherDropped.Add(ctx, 1)
}
