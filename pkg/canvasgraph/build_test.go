package canvasgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node[T Node](t *testing.T, g *Graph, id string) T {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok, "node %s missing", id)
	typed, ok := n.(T)
	require.True(t, ok, "node %s has type %T", id, n)
	return typed
}

func writer(t *testing.T, g *Graph, nodeID, field string) EdgeConnection {
	t.Helper()
	e, ok := g.EdgeInto(At(nodeID, field))
	require.True(t, ok, "nothing writes %s.%s", nodeID, field)
	return e.Source
}

// TestBuildBase_Topology tests the fixed nodes and wiring of the base graph.
func TestBuildBase_Topology(t *testing.T) {
	g, err := BuildBase(validConfig(), GraphID)
	require.NoError(t, err)

	assert.Equal(t, GraphID, g.ID())
	assert.Equal(t, 16, g.Len())
	assert.Len(t, g.Edges(), 23)
	assert.Equal(t, CanvasOutputID, g.Output())

	wiring := []struct {
		dst, field string
		src        EdgeConnection
	}{
		{DenoiseLatentsID, "unet", At(ModelLoaderID, "unet")},
		{PositiveConditioningID, "clip", At(ModelLoaderID, "clip")},
		{NegativeConditioningID, "clip2", At(ModelLoaderID, "clip2")},
		{DenoiseLatentsID, "positive_conditioning", At(PositiveConditioningID, "conditioning")},
		{DenoiseLatentsID, "negative_conditioning", At(NegativeConditioningID, "conditioning")},
		{InpaintImageID, "image", At(InfillID, "image")},
		{MaskCombineID, "mask1", At(MaskFromAlphaID, "image")},
		{MaskBlurID, "image", At(MaskCombineID, "image")},
		{IterateID, "collection", At(RangeOfSizeID, "collection")},
		{NoiseID, "seed", At(IterateID, "item")},
		{DenoiseLatentsID, "noise", At(NoiseID, "noise")},
		{DenoiseLatentsID, "latents", At(InpaintImageID, "latents")},
		{DenoiseLatentsID, "mask", At(MaskBlurID, "image")},
		{LatentsToImageID, "latents", At(DenoiseLatentsID, "latents")},
		{ColorCorrectID, "image", At(LatentsToImageID, "image")},
		{ColorCorrectID, "reference", At(InfillID, "image")},
		{CanvasOutputID, "base_image", At(InfillID, "image")},
		{CanvasOutputID, "image", At(ColorCorrectID, "image")},
		{CanvasOutputID, "mask", At(MaskBlurID, "image")},
	}
	for _, w := range wiring {
		assert.Equal(t, w.src, writer(t, g, w.dst, w.field), "%s.%s", w.dst, w.field)
	}

	p, err := g.Finish()
	require.NoError(t, err)
	assert.Equal(t, ModelLoaderID, p.TopologicalOrder()[0])
}

// TestBuildBase_Deterministic tests that identical configurations build identical graphs.
func TestBuildBase_Deterministic(t *testing.T) {
	a, err := BuildBase(validConfig(), GraphID)
	require.NoError(t, err)
	b, err := BuildBase(validConfig(), GraphID)
	require.NoError(t, err)

	pa, err := a.Finish()
	require.NoError(t, err)
	pb, err := b.Finish()
	require.NoError(t, err)

	assert.Equal(t, pa.NodeIDs(), pb.NodeIDs())
	assert.Equal(t, pa.Edges(), pb.Edges())
}

// TestBuildBase_NodeFields tests that configuration values land on the right nodes.
func TestBuildBase_NodeFields(t *testing.T) {
	cfg := validConfig()
	cfg.BoundingBox = BoundingBox{Width: 768, Height: 512}
	cfg.Steps = 30
	cfg.CFGScale = 5
	cfg.Scheduler = "dpmpp_2m"
	cfg.MaskBlur = 8
	cfg.MaskBlurMethod = BlurGaussian
	cfg.VAEPrecision = "fp16"

	g, err := BuildBase(cfg, GraphID)
	require.NoError(t, err)

	noise := node[*NoiseNode](t, g, NoiseID)
	assert.Equal(t, 768, noise.Width)
	assert.Equal(t, 512, noise.Height)

	denoise := node[*DenoiseLatentsNode](t, g, DenoiseLatentsID)
	assert.Equal(t, 30, denoise.Steps)
	assert.Equal(t, 5.0, denoise.CFGScale)
	assert.Equal(t, "dpmpp_2m", denoise.Scheduler)

	blur := node[*ImageBlurNode](t, g, MaskBlurID)
	assert.Equal(t, 8, blur.Radius)
	assert.Equal(t, BlurGaussian, blur.BlurType)

	assert.False(t, node[*ImageToLatentsNode](t, g, InpaintImageID).FP32)
	assert.False(t, node[*LatentsToImageNode](t, g, LatentsToImageID).FP32)

	loader := node[*ModelLoaderNode](t, g, ModelLoaderID)
	assert.Equal(t, "sdxl-base", loader.Model.ModelName)

	alpha := node[*MaskFromAlphaNode](t, g, MaskFromAlphaID)
	require.NotNil(t, alpha.Image)
	assert.Equal(t, "canvas.png", alpha.Image.ImageName)
	combine := node[*MaskCombineNode](t, g, MaskCombineID)
	require.NotNil(t, combine.Mask2)
	assert.Equal(t, "mask.png", combine.Mask2.ImageName)

	canvas := node[*ImagePasteNode](t, g, CanvasOutputID)
	assert.False(t, canvas.IsIntermediate)
	assert.True(t, noise.IsIntermediate)
}

// TestDenoisingBounds tests the schedule fractions with and without a refiner.
func TestDenoisingBounds(t *testing.T) {
	tests := []struct {
		name       string
		strength   float64
		refiner    bool
		handoff    float64
		start, end float64
	}{
		{"no refiner", 0.7, false, 0.8, 0.3, 1.0},
		{"full strength", 1.0, false, 0.8, 0.0, 1.0},
		{"refiner after start", 0.7, true, 0.8, 0.3, 0.8},
		{"refiner before start", 0.1, true, 0.8, 0.8, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Strength = tt.strength
			cfg.Refiner.Enabled = tt.refiner
			cfg.Refiner.Start = tt.handoff
			start, end := denoisingBounds(cfg)
			assert.InDelta(t, tt.start, start, 1e-9)
			assert.InDelta(t, tt.end, end, 1e-9)
		})
	}
}

// TestBuildBase_FixedSeed tests the literal seed path.
func TestBuildBase_FixedSeed(t *testing.T) {
	cfg := validConfig()
	cfg.ShouldRandomizeSeed = false
	cfg.Seed = 42
	cfg.Iterations = 4

	g, err := BuildBase(cfg, GraphID)
	require.NoError(t, err)

	assert.False(t, g.HasNode(RandomIntID))
	assert.Len(t, g.Edges(), 22)
	_, written := g.EdgeInto(At(RangeOfSizeID, "start"))
	assert.False(t, written)

	r := node[*RangeOfSizeNode](t, g, RangeOfSizeID)
	require.NotNil(t, r.Start)
	assert.Equal(t, int64(42), *r.Start)
	assert.Equal(t, 4, r.Size)
	assert.Equal(t, 1, r.Step)
}

// TestBuildBase_RandomSeed tests the generated seed path.
func TestBuildBase_RandomSeed(t *testing.T) {
	cfg := validConfig()
	cfg.ShouldRandomizeSeed = true
	cfg.Seed = 42

	g, err := BuildBase(cfg, GraphID)
	require.NoError(t, err)

	r := node[*RangeOfSizeNode](t, g, RangeOfSizeID)
	assert.Nil(t, r.Start)
	assert.Equal(t, At(RandomIntID, "value"), writer(t, g, RangeOfSizeID, "start"))

	seed := node[*RandomIntNode](t, g, RandomIntID)
	assert.Equal(t, int64(0), seed.Low)
	// High is exclusive, so seeds span [0, 2147483646].
	assert.Equal(t, int64(2147483647), seed.High)
}

// TestBuildBase_Infill tests that exactly one infill node of the chosen variant exists.
func TestBuildBase_Infill(t *testing.T) {
	t.Run("tile", func(t *testing.T) {
		cfg := validConfig()
		cfg.InfillMethod = InfillTile
		cfg.TileSize = 64
		g, err := BuildBase(cfg, GraphID)
		require.NoError(t, err)

		assert.Len(t, g.NodesOfType(TypeInfillTile), 1)
		assert.Empty(t, g.NodesOfType(TypeInfillPatchMatch))
		tile := node[*InfillTileNode](t, g, InfillID)
		assert.Equal(t, 64, tile.TileSize)
		require.NotNil(t, tile.Image)
		assert.Equal(t, "canvas.png", tile.Image.ImageName)
	})

	t.Run("patchmatch", func(t *testing.T) {
		cfg := validConfig()
		cfg.InfillMethod = InfillPatchMatch
		g, err := BuildBase(cfg, GraphID)
		require.NoError(t, err)

		assert.Len(t, g.NodesOfType(TypeInfillPatchMatch), 1)
		assert.Empty(t, g.NodesOfType(TypeInfillTile))
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := validConfig()
		cfg.InfillMethod = "lama"
		g, err := BuildBase(cfg, GraphID)
		assert.Nil(t, g)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

// TestBuildBase_NoiseSettings tests the effective CPU noise flag.
func TestBuildBase_NoiseSettings(t *testing.T) {
	tests := []struct {
		name        string
		useSettings bool
		cpu         bool
		want        bool
	}{
		{"settings ignored", false, false, true},
		{"settings cpu", true, true, true},
		{"settings gpu", true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.ShouldUseNoiseSettings = tt.useSettings
			cfg.ShouldUseCPUNoise = tt.cpu
			g, err := BuildBase(cfg, GraphID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node[*NoiseNode](t, g, NoiseID).UseCPU)
		})
	}
}

// TestConfig_StylePrompts tests standalone and concatenated style prompts.
func TestConfig_StylePrompts(t *testing.T) {
	cfg := validConfig()
	cfg.PositiveStylePrompt = "oil painting"
	cfg.NegativeStylePrompt = ""

	pos, neg := cfg.StylePrompts()
	assert.Equal(t, "oil painting", pos)
	assert.Equal(t, "", neg)

	cfg.ShouldConcatStylePrompt = true
	pos, neg = cfg.StylePrompts()
	assert.Equal(t, "a lighthouse at dusk oil painting", pos)
	assert.Equal(t, "blurry", neg)

	g, err := BuildBase(cfg, GraphID)
	require.NoError(t, err)
	prompt := node[*CompelPromptNode](t, g, PositiveConditioningID)
	assert.Equal(t, "a lighthouse at dusk", prompt.Prompt)
	assert.Equal(t, "a lighthouse at dusk oil painting", prompt.Style)
}

// TestConfig_Validate tests configuration checks.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
		err    error
	}{
		{"no model", func(c *Config) { c.Model = nil }, "model", ErrMissingModel},
		{"empty model name", func(c *Config) { c.Model = &ModelIdentifier{} }, "model", ErrMissingModel},
		{"zero steps", func(c *Config) { c.Steps = 0 }, "steps", ErrInvalidConfig},
		{"strength above one", func(c *Config) { c.Strength = 1.5 }, "strength", ErrInvalidConfig},
		{"negative strength", func(c *Config) { c.Strength = -0.1 }, "strength", ErrInvalidConfig},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }, "iterations", ErrInvalidConfig},
		{"empty box", func(c *Config) { c.BoundingBox.Width = 0 }, "bounding_box", ErrInvalidConfig},
		{"no scheduler", func(c *Config) { c.Scheduler = "" }, "scheduler", ErrInvalidConfig},
		{"negative blur", func(c *Config) { c.MaskBlur = -1 }, "mask_blur", ErrInvalidConfig},
		{"unknown blur", func(c *Config) { c.MaskBlurMethod = "median" }, "mask_blur_method", ErrInvalidConfig},
		{"tile size", func(c *Config) { c.InfillMethod = InfillTile; c.TileSize = 0 }, "tile_size", ErrInvalidConfig},
		{"refiner without model", func(c *Config) { c.Refiner.Enabled = true }, "refiner.model", ErrInvalidConfig},
		{"refiner start", func(c *Config) {
			c.Refiner.Enabled = true
			c.Refiner.Model = &ModelIdentifier{ModelName: "refiner"}
			c.Refiner.Start = 0
		}, "refiner.start", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, tt.err)
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)

			g, buildErr := BuildBase(cfg, GraphID)
			assert.Nil(t, g)
			assert.ErrorIs(t, buildErr, tt.err)
		})
	}

	assert.NoError(t, validConfig().Validate())
}

// TestDefaultConfig tests that defaults only lack a model.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingModel)
	assert.True(t, cfg.ShouldRandomizeSeed)
	assert.Equal(t, InfillPatchMatch, cfg.InfillMethod)
}
