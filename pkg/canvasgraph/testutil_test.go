package canvasgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that assembles without stages.
func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Model = &ModelIdentifier{ModelName: "sdxl-base", BaseModel: "sdxl", ModelType: "main"}
	cfg.PositivePrompt = "a lighthouse at dusk"
	cfg.NegativePrompt = "blurry"
	cfg.InitImage = "canvas.png"
	cfg.MaskImage = "mask.png"
	return cfg
}

// recordingStage appends its name to a shared log when applied.
type recordingStage struct {
	name string
	log  *[]string
	err  error
	fn   func(g *Graph) error
}

func (s recordingStage) Name() string { return s.name }

func (s recordingStage) Apply(g *Graph, _ Anchors, _ Config) error {
	*s.log = append(*s.log, s.name)
	if s.err != nil {
		return s.err
	}
	if s.fn != nil {
		return s.fn(g)
	}
	return nil
}

// requireRule asserts err is a *GraphValidationError for rule.
func requireRule(t *testing.T, err error, rule error) *GraphValidationError {
	t.Helper()
	require.Error(t, err)
	var gve *GraphValidationError
	require.True(t, errors.As(err, &gve), "expected *GraphValidationError, got %T: %v", err, err)
	require.ErrorIs(t, err, rule)
	return gve
}

// chain builds rand_int -> range -> iterate, the smallest useful graph.
func chain(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("test")
	require.NoError(t, g.AddNode(&RandomIntNode{Base: Base{ID: "seed"}, High: 10}))
	require.NoError(t, g.AddNode(&RangeOfSizeNode{Base: Base{ID: "range"}, Size: 2, Step: 1}))
	require.NoError(t, g.AddNode(&IterateNode{Base: Base{ID: "iter"}}))
	require.NoError(t, g.AddEdge(At("seed", "value"), At("range", "start")))
	require.NoError(t, g.AddEdge(At("range", "collection"), At("iter", "collection")))
	return g
}
