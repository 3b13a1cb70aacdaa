package canvasgraph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph/observability"
)

// Assembler turns generation configurations into validated pipelines.
// It holds no per-call state and is safe for concurrent use.
type Assembler struct {
	cfg assemblerConfig
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	cfg := defaultAssemblerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Assembler{cfg: cfg}
}

// Assemble builds the base outpaint topology for cfg, applies the enabled
// augmentation stages in their fixed order, and validates the result.
//
// Assembly either returns a fully validated pipeline or fails outright:
//   - *ConfigurationError when cfg is unusable (no node is created)
//   - the stage's own error, unchanged, when a stage fails
//   - *GraphValidationError when the finished graph breaks an invariant,
//     including an optional node whose presence disagrees with cfg
//
// ctx carries tracing only; assembly never blocks.
func (a *Assembler) Assemble(ctx context.Context, cfg Config) (p *Pipeline, err error) {
	assemblyID := uuid.NewString()
	logger := observability.EnrichLogger(a.cfg.logger, assemblyID, a.cfg.graphID)
	startTime := time.Now()
	lastStage := ""

	observability.LogAssemblyStart(logger, assemblyID)

	if a.cfg.tracingEnabled {
		var span trace.Span
		ctx, span = a.cfg.spans.StartAssemblySpan(ctx, a.cfg.graphID, assemblyID)
		defer func() {
			a.cfg.spans.EndSpanWithError(span, err)
		}()
	}

	defer func() {
		duration := time.Since(startTime)
		durationMs := float64(duration.Microseconds()) / 1000
		nodeCount := 0
		if p != nil {
			nodeCount = p.Len()
		}
		a.cfg.metrics.RecordAssembly(ctx, err == nil, duration, nodeCount)
		if err != nil {
			observability.LogAssemblyError(logger, assemblyID, err, durationMs, lastStage)
			return
		}
		observability.LogAssemblyComplete(logger, assemblyID, durationMs, p.Len(), len(p.edges))
	}()

	g, err := BuildBase(cfg, a.cfg.graphID)
	if err != nil {
		return nil, err
	}
	a.cfg.spans.AddSpanEvent(ctx, "base_built", attribute.Int("nodes", g.Len()))

	hook := StageHook{
		Skipped: func(slot, reason string) {
			observability.LogStageSkipped(logger, slot, reason)
		},
		Apply: func(step StageStep, run func() error) error {
			name := step.Stage.Name()
			lastStage = name
			stageCtx := ctx
			var span trace.Span
			if a.cfg.tracingEnabled {
				stageCtx, span = a.cfg.spans.StartStageSpan(ctx, name)
			}
			before := g.Len()
			stageErr := run()
			a.cfg.metrics.RecordStage(stageCtx, name, stageErr)
			if a.cfg.tracingEnabled {
				a.cfg.spans.EndSpanWithError(span, stageErr)
			}
			if stageErr != nil {
				observability.LogStageError(logger, name, stageErr)
				return stageErr
			}
			observability.LogStageApplied(logger, name, g.Len()-before)
			return nil
		},
	}
	if err := Augment(g, a.cfg.stages, a.cfg.anchors, cfg, hook); err != nil {
		return nil, err
	}

	p, err = g.Finish()
	if err != nil {
		return nil, err
	}
	if err := checkOptionalNodes(p, cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// checkOptionalNodes verifies that every optional node exists iff its flag
// is set, and that the content filter runs before the watermark.
func checkOptionalNodes(p *Pipeline, cfg Config) error {
	optional := []struct {
		nodeType NodeType
		want     bool
		flag     string
	}{
		{TypeRandomInt, cfg.ShouldRandomizeSeed, "should_randomize_seed"},
		{TypeRefinerModelLoader, cfg.Refiner.Enabled, "refiner.enabled"},
		{TypeNSFWChecker, cfg.NSFWChecker, "nsfw_checker"},
		{TypeWatermark, cfg.Watermarker, "watermarker"},
	}
	for _, o := range optional {
		nodes := p.NodesOfType(o.nodeType)
		if o.want && len(nodes) == 0 {
			return violation(ErrUnexpectedNode, "", "", "%s is set but no %s node exists", o.flag, o.nodeType)
		}
		if !o.want && len(nodes) > 0 {
			return violation(ErrUnexpectedNode, nodes[0].Header().ID, "", "%s node exists but %s is not set", o.nodeType, o.flag)
		}
	}

	if cfg.NSFWChecker && cfg.Watermarker {
		filter := p.NodesOfType(TypeNSFWChecker)[0].Header().ID
		for _, n := range p.NodesOfType(TypeWatermark) {
			id := n.Header().ID
			if !p.reachable(filter, id) {
				return violation(ErrUnexpectedNode, id, "", "watermark is not downstream of content filter %s", filter)
			}
		}
	}
	return nil
}
