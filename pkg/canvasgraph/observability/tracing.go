package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("canvasgraph")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartAssemblySpan starts a span for one Assemble call.
	StartAssemblySpan(ctx context.Context, graphID, assemblyID string) (context.Context, trace.Span)

	// StartStageSpan starts a span for an augmentation stage.
	// The stage span should be a child of the assembly span.
	StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartAssemblySpan(ctx context.Context, graphID, assemblyID string) (context.Context, trace.Span) {
	return StartAssemblySpan(ctx, graphID, assemblyID)
}

func (m *otelSpanManager) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return StartStageSpan(ctx, stage)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartAssemblySpan starts a span for a graph assembly.
// Uses the global OTel tracer.
func StartAssemblySpan(ctx context.Context, graphID, assemblyID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "canvasgraph.assemble",
		trace.WithAttributes(
			attribute.String("graph.id", graphID),
			attribute.String("assembly.id", assemblyID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStageSpan starts a span for an augmentation stage.
// Uses the global OTel tracer.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "canvasgraph.stage."+stage,
		trace.WithAttributes(
			attribute.String("stage.name", stage),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
