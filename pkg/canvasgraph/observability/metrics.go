package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records assembly metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAssembly records one Assemble call with its outcome and graph size.
	RecordAssembly(ctx context.Context, success bool, duration time.Duration, nodeCount int)

	// RecordStage records one augmentation stage application.
	RecordStage(ctx context.Context, stage string, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	assemblies      metric.Int64Counter
	assemblyLatency metric.Float64Histogram
	graphNodes      metric.Int64Histogram
	stageRuns       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("canvasgraph")

	assemblies, err := meter.Int64Counter("canvasgraph.assembly.count",
		metric.WithDescription("Number of graph assemblies"),
	)
	if err != nil {
		return nil, err
	}

	assemblyLatency, err := meter.Float64Histogram("canvasgraph.assembly.latency_ms",
		metric.WithDescription("Graph assembly latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	graphNodes, err := meter.Int64Histogram("canvasgraph.graph.nodes",
		metric.WithDescription("Number of nodes in assembled graphs"),
	)
	if err != nil {
		return nil, err
	}

	stageRuns, err := meter.Int64Counter("canvasgraph.stage.applications",
		metric.WithDescription("Number of augmentation stage applications"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		assemblies:      assemblies,
		assemblyLatency: assemblyLatency,
		graphNodes:      graphNodes,
		stageRuns:       stageRuns,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordAssembly records an assembly.
func (m *otelMetrics) RecordAssembly(ctx context.Context, success bool, duration time.Duration, nodeCount int) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.assemblies.Add(ctx, 1, attrs)
	m.assemblyLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if success {
		m.graphNodes.Record(ctx, int64(nodeCount))
	}
}

// RecordStage records a stage application.
func (m *otelMetrics) RecordStage(ctx context.Context, stage string, err error) {
	m.stageRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("success", err == nil),
	))
}
