package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, len(h.attrs)+len(attrs)),
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testHandler) lastRecord(t *testing.T) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(h.buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	return m
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds assembly and graph IDs", func(t *testing.T) {
		h := newTestHandler()
		enriched := EnrichLogger(slog.New(h), "a1", "g1")
		enriched.Info("hello")

		rec := h.lastRecord(t)
		assert.Equal(t, "a1", rec["assembly_id"])
		assert.Equal(t, "g1", rec["graph_id"])
	})

	t.Run("nil logger stays nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "a1", "g1"))
	})
}

func TestLogHelpers(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogAssemblyStart(logger, "a1")
	rec := h.lastRecord(t)
	assert.Equal(t, "graph assembly starting", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])

	LogAssemblyComplete(logger, "a1", 1.5, 16, 23)
	rec = h.lastRecord(t)
	assert.Equal(t, "graph assembly completed", rec["msg"])
	assert.EqualValues(t, 16, rec["nodes"])
	assert.EqualValues(t, 23, rec["edges"])
	assert.EqualValues(t, 1.5, rec["duration_ms"])

	LogAssemblyError(logger, "a1", errors.New("boom"), 2, "lora")
	rec = h.lastRecord(t)
	assert.Equal(t, "graph assembly failed", rec["msg"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, "lora", rec["last_stage"])

	LogStageApplied(logger, "refiner", 4)
	rec = h.lastRecord(t)
	assert.Equal(t, "stage applied", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.EqualValues(t, 4, rec["nodes_added"])

	LogStageSkipped(logger, "watermark", "disabled")
	rec = h.lastRecord(t)
	assert.Equal(t, "stage skipped", rec["msg"])
	assert.Equal(t, "disabled", rec["reason"])

	LogStageError(logger, "vae", errors.New("no vae"))
	rec = h.lastRecord(t)
	assert.Equal(t, "stage failed", rec["msg"])
	assert.Equal(t, "vae", rec["stage"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogAssemblyStart(nil, "a1")
		LogAssemblyComplete(nil, "a1", 0, 0, 0)
		LogAssemblyError(nil, "a1", errors.New("x"), 0, "")
		LogStageApplied(nil, "s", 0)
		LogStageSkipped(nil, "s", "r")
		LogStageError(nil, "s", errors.New("x"))
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 1.0)
}
