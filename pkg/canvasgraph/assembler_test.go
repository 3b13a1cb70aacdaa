package canvasgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph/observability"
)

// testLogHandler captures log records for testing.
type testLogHandler struct {
	mu    *sync.Mutex
	buf   *bytes.Buffer
	attrs []slog.Attr
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{mu: &sync.Mutex{}, buf: &bytes.Buffer{}}
}

func (h *testLogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, a := range h.attrs {
		data[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &testLogHandler{mu: h.mu, buf: h.buf, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *testLogHandler) WithGroup(string) slog.Handler { return h }

func (h *testLogHandler) records() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// fakeMetrics records calls instead of exporting them.
type fakeMetrics struct {
	assemblies []bool
	nodes      []int
	stages     map[string]error
}

func (m *fakeMetrics) RecordAssembly(_ context.Context, success bool, _ time.Duration, nodeCount int) {
	m.assemblies = append(m.assemblies, success)
	m.nodes = append(m.nodes, nodeCount)
}

func (m *fakeMetrics) RecordStage(_ context.Context, stage string, err error) {
	if m.stages == nil {
		m.stages = map[string]error{}
	}
	m.stages[stage] = err
}

// fakeSpans records span names and the error each ended with.
type fakeSpans struct {
	started []string
	ended   []error
	events  []string
}

func (s *fakeSpans) StartAssemblySpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	s.started = append(s.started, "assemble")
	return ctx, noop.Span{}
}

func (s *fakeSpans) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	s.started = append(s.started, stage)
	return ctx, noop.Span{}
}

func (s *fakeSpans) EndSpanWithError(_ trace.Span, err error) {
	s.ended = append(s.ended, err)
}

func (s *fakeSpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.events = append(s.events, name)
}

var (
	_ observability.MetricsRecorder = (*fakeMetrics)(nil)
	_ observability.SpanManager     = (*fakeSpans)(nil)
)

// TestAssemble_BaseOnly tests assembly without any stage implementations.
func TestAssemble_BaseOnly(t *testing.T) {
	p, err := NewAssembler().Assemble(context.Background(), validConfig())
	require.NoError(t, err)
	assert.Equal(t, GraphID, p.ID())
	assert.Equal(t, 16, p.Len())
	assert.Equal(t, CanvasOutputID, p.Output())
}

// TestAssemble_MissingModel tests that configuration errors return no pipeline.
func TestAssemble_MissingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Model = nil

	p, err := NewAssembler().Assemble(context.Background(), cfg)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrMissingModel)
	var ce *ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

// TestAssemble_StageError tests that a stage error is returned unchanged.
func TestAssemble_StageError(t *testing.T) {
	errBoom := errors.New("boom")
	var log []string
	a := NewAssembler(WithStages(Stages{
		VAE: recordingStage{name: "vae", log: &log, err: errBoom},
	}))

	p, err := a.Assemble(context.Background(), validConfig())
	assert.Nil(t, p)
	assert.Same(t, errBoom, err)
}

// TestAssemble_GraphID tests the graph identifier option.
func TestAssemble_GraphID(t *testing.T) {
	p, err := NewAssembler(WithGraphID("custom"), WithGraphID("")).Assemble(context.Background(), validConfig())
	require.NoError(t, err)
	assert.Equal(t, "custom", p.ID())
}

// TestAssemble_OptionalNodeCheck tests that flags and optional nodes must agree.
func TestAssemble_OptionalNodeCheck(t *testing.T) {
	t.Run("flag set without node", func(t *testing.T) {
		cfg := validConfig()
		cfg.NSFWChecker = true
		var log []string
		a := NewAssembler(WithStages(Stages{
			ContentFilter: recordingStage{name: "content_filter", log: &log},
		}))
		_, err := a.Assemble(context.Background(), cfg)
		requireRule(t, err, ErrUnexpectedNode)
	})

	t.Run("node without flag", func(t *testing.T) {
		var log []string
		a := NewAssembler(WithStages(Stages{
			VAE: recordingStage{name: "vae", log: &log, fn: func(g *Graph) error {
				return g.AddNode(&WatermarkNode{Base: Base{ID: "stray"}})
			}},
		}))
		_, err := a.Assemble(context.Background(), validConfig())
		gve := requireRule(t, err, ErrUnexpectedNode)
		assert.Equal(t, "stray", gve.NodeID)
	})

	t.Run("watermark before filter", func(t *testing.T) {
		cfg := validConfig()
		cfg.NSFWChecker = true
		cfg.Watermarker = true
		var log []string
		// Both nodes hang off the canvas output side by side.
		attach := func(n Node) func(g *Graph) error {
			return func(g *Graph) error {
				if err := g.AddNode(n); err != nil {
					return err
				}
				return g.AddEdge(At(CanvasOutputID, "image"), At(n.Header().ID, "image"))
			}
		}
		a := NewAssembler(WithStages(Stages{
			ContentFilter: recordingStage{name: "content_filter", log: &log,
				fn: attach(&NSFWCheckerNode{Base: Base{ID: "nsfw"}})},
			Watermark: recordingStage{name: "watermark", log: &log,
				fn: attach(&WatermarkNode{Base: Base{ID: "mark"}})},
		}))
		_, err := a.Assemble(context.Background(), cfg)
		gve := requireRule(t, err, ErrUnexpectedNode)
		assert.Equal(t, "mark", gve.NodeID)
	})

	t.Run("fixed seed with generated seed node", func(t *testing.T) {
		cfg := validConfig()
		cfg.ShouldRandomizeSeed = false
		var log []string
		a := NewAssembler(WithStages(Stages{
			VAE: recordingStage{name: "vae", log: &log, fn: func(g *Graph) error {
				return RandomSeed{}.Apply(g, &RangeOfSizeNode{Base: Base{ID: RangeOfSizeID}})
			}},
		}))
		_, err := a.Assemble(context.Background(), cfg)
		requireRule(t, err, ErrUnexpectedNode)
	})
}

// TestAssemble_Logging tests the structured log records of one assembly.
func TestAssemble_Logging(t *testing.T) {
	h := newTestLogHandler()
	var log []string
	a := NewAssembler(
		WithLogger(slog.New(h)),
		WithStages(Stages{VAE: recordingStage{name: "vae", log: &log}}),
	)

	_, err := a.Assemble(context.Background(), validConfig())
	require.NoError(t, err)

	msgs := map[string]map[string]any{}
	var skips int
	for _, r := range h.records() {
		msg := r["msg"].(string)
		msgs[msg] = r
		if msg == "stage skipped" {
			skips++
		}
		assert.Equal(t, GraphID, r["graph_id"])
		assert.NotEmpty(t, r["assembly_id"])
	}
	require.Contains(t, msgs, "graph assembly starting")
	require.Contains(t, msgs, "stage applied")
	require.Contains(t, msgs, "graph assembly completed")
	assert.Equal(t, "vae", msgs["stage applied"]["stage"])
	assert.EqualValues(t, 16, msgs["graph assembly completed"]["nodes"])
	assert.Equal(t, 5, skips)
}

// TestAssemble_LoggingError tests that failures log the stage that failed.
func TestAssemble_LoggingError(t *testing.T) {
	h := newTestLogHandler()
	var log []string
	a := NewAssembler(
		WithLogger(slog.New(h)),
		WithStages(Stages{LoRA: recordingStage{name: "lora", log: &log, err: errors.New("boom")}}),
	)

	_, err := a.Assemble(context.Background(), validConfig())
	require.Error(t, err)

	var failed map[string]any
	for _, r := range h.records() {
		if r["msg"] == "graph assembly failed" {
			failed = r
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "lora", failed["last_stage"])
	assert.Equal(t, "boom", failed["error"])
}

// TestAssemble_Observability tests that metrics and spans are reported.
func TestAssemble_Observability(t *testing.T) {
	var log []string
	m := &fakeMetrics{}
	s := &fakeSpans{}
	a := NewAssembler(WithStages(Stages{VAE: recordingStage{name: "vae", log: &log}}))
	a.cfg.metrics = m
	a.cfg.tracingEnabled = true
	a.cfg.spans = s

	p, err := a.Assemble(context.Background(), validConfig())
	require.NoError(t, err)

	assert.Equal(t, []bool{true}, m.assemblies)
	assert.Equal(t, []int{p.Len()}, m.nodes)
	assert.Contains(t, m.stages, "vae")
	assert.NoError(t, m.stages["vae"])

	assert.Equal(t, []string{"assemble", "vae"}, s.started)
	assert.Equal(t, []error{nil, nil}, s.ended)
	assert.Equal(t, []string{"base_built"}, s.events)
}

// TestAssemble_ObservabilityFailure tests that failures are recorded too.
func TestAssemble_ObservabilityFailure(t *testing.T) {
	m := &fakeMetrics{}
	s := &fakeSpans{}
	a := NewAssembler()
	a.cfg.metrics = m
	a.cfg.tracingEnabled = true
	a.cfg.spans = s

	cfg := validConfig()
	cfg.Steps = 0
	_, err := a.Assemble(context.Background(), cfg)
	require.Error(t, err)

	assert.Equal(t, []bool{false}, m.assemblies)
	assert.Equal(t, []int{0}, m.nodes)
	require.Len(t, s.ended, 1)
	assert.ErrorIs(t, s.ended[0], ErrInvalidConfig)
}

// TestAssemble_WithMetricsAndTracing tests the OpenTelemetry-backed options.
func TestAssemble_WithMetricsAndTracing(t *testing.T) {
	a := NewAssembler(WithMetrics(true), WithTracing(true))
	assert.True(t, a.cfg.metricsEnabled)
	assert.True(t, a.cfg.tracingEnabled)

	_, err := a.Assemble(context.Background(), validConfig())
	require.NoError(t, err)

	a = NewAssembler(WithMetrics(true), WithMetrics(false), WithTracing(true), WithTracing(false))
	assert.False(t, a.cfg.metricsEnabled)
	assert.False(t, a.cfg.tracingEnabled)
	assert.IsType(t, observability.NoopMetrics{}, a.cfg.metrics)
	assert.IsType(t, observability.NoopSpanManager{}, a.cfg.spans)
}

// TestAssemble_Concurrent tests that one Assembler serves parallel calls.
func TestAssemble_Concurrent(t *testing.T) {
	a := NewAssembler()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Assemble(context.Background(), validConfig())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
