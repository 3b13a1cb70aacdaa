package canvasgraph

import "math"

// GraphID is the identifier of assembled outpaint graphs.
const GraphID = "sdxl_canvas_outpaint_graph"

// Node IDs of the base outpaint topology. Augmentation stages use them as
// attachment points.
const (
	ModelLoaderID          = "sdxl_model_loader"
	PositiveConditioningID = "positive_conditioning"
	NegativeConditioningID = "negative_conditioning"
	InfillID               = "infill"
	InpaintImageID         = "inpaint_image"
	MaskFromAlphaID        = "mask_from_alpha"
	MaskCombineID          = "mask_combine"
	MaskBlurID             = "mask_blur"
	NoiseID                = "noise"
	DenoiseLatentsID       = "sdxl_denoise_latents"
	LatentsToImageID       = "latents_to_image"
	ColorCorrectID         = "color_correct"
	CanvasOutputID         = "canvas_output"
	RangeOfSizeID          = "range_of_size"
	IterateID              = "iterate"
	RandomIntID            = "rand_int"
)

// BaseAnchors returns the node IDs every outpaint graph must contain.
func BaseAnchors() []string {
	return []string{ModelLoaderID, PositiveConditioningID, NegativeConditioningID, CanvasOutputID}
}

// BuildBase constructs the fixed outpaint topology for cfg.
//
// It returns a *ConfigurationError, and no graph, when cfg is not well formed.
// The result is deterministic: the same configuration always yields the same
// nodes and edges in the same order. The composite node is the initial output.
func BuildBase(cfg Config, graphID string) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	infill, err := infillStrategyFor(cfg)
	if err != nil {
		return nil, err
	}

	b := &baseBuilder{g: NewGraph(graphID), cfg: cfg}
	b.addNodes(infill)
	b.wire()
	if b.err != nil {
		return nil, b.err
	}

	g := b.g
	g.RequireAnchors(BaseAnchors()...)
	if err := g.SetOutput(CanvasOutputID); err != nil {
		return nil, err
	}
	return g, nil
}

// baseBuilder records the first error so the construction reads top to bottom.
type baseBuilder struct {
	g   *Graph
	cfg Config
	err error
}

func (b *baseBuilder) add(n Node) {
	if b.err == nil {
		b.err = b.g.AddNode(n)
	}
}

func (b *baseBuilder) connect(srcNode, srcField, dstNode, dstField string) {
	if b.err == nil {
		b.err = b.g.AddEdge(At(srcNode, srcField), At(dstNode, dstField))
	}
}

func (b *baseBuilder) addNodes(infill InfillStrategy) {
	cfg := b.cfg

	b.add(&ModelLoaderNode{
		Base:  Base{ID: ModelLoaderID},
		Model: *cfg.Model,
	})
	positiveStyle, negativeStyle := cfg.StylePrompts()
	b.add(&CompelPromptNode{
		Base:   Base{ID: PositiveConditioningID},
		Prompt: cfg.PositivePrompt,
		Style:  positiveStyle,
	})
	b.add(&CompelPromptNode{
		Base:   Base{ID: NegativeConditioningID},
		Prompt: cfg.NegativePrompt,
		Style:  negativeStyle,
	})
	b.add(infill.Node(InfillID, imageRef(cfg.InitImage)))
	b.add(&ImageToLatentsNode{
		Base: Base{ID: InpaintImageID, IsIntermediate: true},
		FP32: cfg.VAEPrecision == "fp32",
	})
	b.add(&MaskFromAlphaNode{
		Base:  Base{ID: MaskFromAlphaID, IsIntermediate: true},
		Image: imageRef(cfg.InitImage),
	})
	b.add(&MaskCombineNode{
		Base:  Base{ID: MaskCombineID, IsIntermediate: true},
		Mask2: imageRef(cfg.MaskImage),
	})
	b.add(&ImageBlurNode{
		Base:     Base{ID: MaskBlurID, IsIntermediate: true},
		Radius:   cfg.MaskBlur,
		BlurType: cfg.MaskBlurMethod,
	})
	// Noise matches the bounding box, not the generic width/height.
	b.add(&NoiseNode{
		Base:   Base{ID: NoiseID, IsIntermediate: true},
		Width:  cfg.BoundingBox.Width,
		Height: cfg.BoundingBox.Height,
		UseCPU: cfg.UseCPUNoise(),
	})
	start, end := denoisingBounds(cfg)
	b.add(&DenoiseLatentsNode{
		Base:           Base{ID: DenoiseLatentsID, IsIntermediate: true},
		Steps:          cfg.Steps,
		CFGScale:       cfg.CFGScale,
		Scheduler:      cfg.Scheduler,
		DenoisingStart: start,
		DenoisingEnd:   end,
	})
	b.add(&LatentsToImageNode{
		Base: Base{ID: LatentsToImageID, IsIntermediate: true},
		FP32: cfg.VAEPrecision == "fp32",
	})
	b.add(&ColorCorrectNode{Base: Base{ID: ColorCorrectID, IsIntermediate: true}})
	b.add(&ImagePasteNode{Base: Base{ID: CanvasOutputID}})

	rangeNode := &RangeOfSizeNode{
		Base: Base{ID: RangeOfSizeID, IsIntermediate: true},
		Size: cfg.Iterations,
		Step: 1,
	}
	b.add(rangeNode)
	b.add(&IterateNode{Base: Base{ID: IterateID, IsIntermediate: true}})
	if b.err == nil {
		b.err = SeedStrategyFor(cfg).Apply(b.g, rangeNode)
	}
}

func (b *baseBuilder) wire() {
	// Model loader -> conditioning and denoiser.
	b.connect(ModelLoaderID, "unet", DenoiseLatentsID, "unet")
	b.connect(ModelLoaderID, "clip", PositiveConditioningID, "clip")
	b.connect(ModelLoaderID, "clip2", PositiveConditioningID, "clip2")
	b.connect(ModelLoaderID, "clip", NegativeConditioningID, "clip")
	b.connect(ModelLoaderID, "clip2", NegativeConditioningID, "clip2")
	b.connect(PositiveConditioningID, "conditioning", DenoiseLatentsID, "positive_conditioning")
	b.connect(NegativeConditioningID, "conditioning", DenoiseLatentsID, "negative_conditioning")

	// Infill -> latents.
	b.connect(InfillID, "image", InpaintImageID, "image")

	// Mask pipeline: alpha mask OR user mask, then blur.
	b.connect(MaskFromAlphaID, "image", MaskCombineID, "mask1")
	b.connect(MaskCombineID, "image", MaskBlurID, "image")

	// Iteration -> noise seed.
	b.connect(RangeOfSizeID, "collection", IterateID, "collection")
	b.connect(IterateID, "item", NoiseID, "seed")

	// Denoise.
	b.connect(NoiseID, "noise", DenoiseLatentsID, "noise")
	b.connect(InpaintImageID, "latents", DenoiseLatentsID, "latents")
	b.connect(MaskBlurID, "image", DenoiseLatentsID, "mask")
	b.connect(DenoiseLatentsID, "latents", LatentsToImageID, "latents")

	// Color correction against the infilled image.
	b.connect(LatentsToImageID, "image", ColorCorrectID, "image")
	b.connect(InfillID, "image", ColorCorrectID, "reference")
	b.connect(MaskBlurID, "image", ColorCorrectID, "mask")

	// Paste the result back over the infilled image.
	b.connect(InfillID, "image", CanvasOutputID, "base_image")
	b.connect(ColorCorrectID, "image", CanvasOutputID, "image")
	b.connect(MaskBlurID, "image", CanvasOutputID, "mask")
}

// denoisingBounds derives the fractions of the schedule the base denoiser
// covers. With a refiner, the base stops at the hand-off and never starts
// after it.
func denoisingBounds(cfg Config) (start, end float64) {
	start = 1 - cfg.Strength
	end = 1.0
	if cfg.Refiner.Enabled {
		end = cfg.Refiner.Start
		start = math.Min(start, end)
	}
	return start, end
}
