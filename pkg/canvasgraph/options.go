package canvasgraph

import (
	"log/slog"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph/observability"
)

// assemblerConfig holds configuration for graph assembly.
type assemblerConfig struct {
	graphID string
	stages  Stages
	anchors Anchors

	logger         *slog.Logger
	metricsEnabled bool
	metrics        observability.MetricsRecorder
	tracingEnabled bool
	spans          observability.SpanManager
}

// defaultAssemblerConfig returns the default assembly configuration.
func defaultAssemblerConfig() assemblerConfig {
	return assemblerConfig{
		graphID: GraphID,
		anchors: DefaultAnchors(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures an Assembler.
type Option func(*assemblerConfig)

// WithStages sets the augmentation stage implementations.
// Default: no stages, so every optional slot is skipped.
//
// Example:
//
//	a := canvasgraph.NewAssembler(canvasgraph.WithStages(augment.Defaults()))
func WithStages(stages Stages) Option {
	return func(c *assemblerConfig) {
		c.stages = stages
	}
}

// WithGraphID sets the identifier written into assembled graphs.
// Default: GraphID. Empty IDs are ignored.
func WithGraphID(id string) Option {
	return func(c *assemblerConfig) {
		if id != "" {
			c.graphID = id
		}
	}
}

// WithLogger sets the structured logger. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *assemblerConfig) {
		c.logger = logger
	}
}

// WithMetrics enables or disables OpenTelemetry metrics.
// When enabled, the global meter provider is used.
func WithMetrics(enabled bool) Option {
	return func(c *assemblerConfig) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables or disables OpenTelemetry tracing.
// When enabled, the global tracer provider is used.
func WithTracing(enabled bool) Option {
	return func(c *assemblerConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}
