package canvasgraph

// Base holds the fields every node carries on the wire.
// Type is filled in from the variant when the node is added to a Graph.
type Base struct {
	ID             string   `json:"id"`
	Type           NodeType `json:"type"`
	IsIntermediate bool     `json:"is_intermediate"`
}

// Header returns the shared fields of the node.
func (b *Base) Header() *Base { return b }

// Node is one entry of the closed node catalog.
//
// It is a sealed sum type: only the variant structs declared in this package
// implement it. Each variant carries only the fields its node type needs, so
// changing one variant cannot affect another.
type Node interface {
	// Header returns the node's shared fields (id, type, is_intermediate).
	Header() *Base

	nodeType() NodeType
	clone() Node
}

// ModelIdentifier names a model known to the execution engine.
type ModelIdentifier struct {
	ModelName string `json:"model_name" yaml:"model_name" mapstructure:"model_name"`
	BaseModel string `json:"base_model" yaml:"base_model" mapstructure:"base_model"`
	ModelType string `json:"model_type,omitempty" yaml:"model_type" mapstructure:"model_type"`
}

// ImageField references an image already stored by the engine.
type ImageField struct {
	ImageName string `json:"image_name"`
}

func imageRef(name string) *ImageField {
	if name == "" {
		return nil
	}
	return &ImageField{ImageName: name}
}

func cloneOf[T any](n *T) *T {
	c := *n
	return &c
}

// ModelLoaderNode loads the main model and exposes its sub-models.
type ModelLoaderNode struct {
	Base
	Model ModelIdentifier `json:"model"`
}

// CompelPromptNode encodes a prompt and a style prompt into conditioning.
type CompelPromptNode struct {
	Base
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// InfillTileNode fills transparent regions by tiling the surrounding image.
type InfillTileNode struct {
	Base
	Image    *ImageField `json:"image,omitempty"`
	TileSize int         `json:"tile_size"`
}

// InfillPatchMatchNode fills transparent regions using PatchMatch.
type InfillPatchMatchNode struct {
	Base
	Image *ImageField `json:"image,omitempty"`
}

// ImageToLatentsNode encodes an image into latent space.
type ImageToLatentsNode struct {
	Base
	FP32 bool `json:"fp32"`
}

// MaskFromAlphaNode extracts a mask from an image's alpha channel.
type MaskFromAlphaNode struct {
	Base
	Image *ImageField `json:"image,omitempty"`
}

// MaskCombineNode combines two masks (logical OR).
type MaskCombineNode struct {
	Base
	Mask2 *ImageField `json:"mask2,omitempty"`
}

// ImageBlurNode blurs an image.
type ImageBlurNode struct {
	Base
	Radius   int    `json:"radius"`
	BlurType string `json:"blur_type"`
}

// NoiseNode generates the initial latent noise.
type NoiseNode struct {
	Base
	Width  int  `json:"width"`
	Height int  `json:"height"`
	UseCPU bool `json:"use_cpu"`
}

// DenoiseLatentsNode runs the denoising loop between two fractions of the schedule.
type DenoiseLatentsNode struct {
	Base
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg_scale"`
	Scheduler      string  `json:"scheduler"`
	DenoisingStart float64 `json:"denoising_start"`
	DenoisingEnd   float64 `json:"denoising_end"`
}

// LatentsToImageNode decodes latents into an image.
type LatentsToImageNode struct {
	Base
	FP32 bool `json:"fp32"`
}

// ColorCorrectNode matches the colors of an image to a reference within a mask.
type ColorCorrectNode struct {
	Base
}

// ImagePasteNode pastes an image over a base image through a mask.
type ImagePasteNode struct {
	Base
}

// RangeOfSizeNode produces Size integers starting at Start with the given Step.
// Start is nil when the value arrives through the "start" port.
type RangeOfSizeNode struct {
	Base
	Start *int64 `json:"start,omitempty"`
	Size  int    `json:"size"`
	Step  int    `json:"step"`
}

// IterateNode fans a collection out into one item per execution.
type IterateNode struct {
	Base
}

// RandomIntNode produces a random integer in [Low, High).
type RandomIntNode struct {
	Base
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// RefinerModelLoaderNode loads the refiner model.
type RefinerModelLoaderNode struct {
	Base
	Model ModelIdentifier `json:"model"`
}

// RefinerCompelPromptNode encodes the style prompt for the refiner.
type RefinerCompelPromptNode struct {
	Base
	Style          string  `json:"style"`
	AestheticScore float64 `json:"aesthetic_score"`
}

// LoRALoaderNode applies a low-rank adapter to unet and text encoders.
type LoRALoaderNode struct {
	Base
	LoRA   ModelIdentifier `json:"lora"`
	Weight float64         `json:"weight"`
}

// ControlNetNode turns a guidance image into a control input.
type ControlNetNode struct {
	Base
	Image            *ImageField     `json:"image,omitempty"`
	ControlModel     ModelIdentifier `json:"control_model"`
	ControlWeight    float64         `json:"control_weight"`
	BeginStepPercent float64         `json:"begin_step_percent"`
	EndStepPercent   float64         `json:"end_step_percent"`
	ControlMode      string          `json:"control_mode"`
	ResizeMode       string          `json:"resize_mode"`
}

// CollectNode gathers every item written to it into a collection.
type CollectNode struct {
	Base
}

// VAELoaderNode loads a VAE that overrides the main model's.
type VAELoaderNode struct {
	Base
	VAEModel ModelIdentifier `json:"vae_model"`
}

// NSFWCheckerNode blurs images flagged by the content filter.
type NSFWCheckerNode struct {
	Base
}

// WatermarkNode burns an invisible watermark into an image.
type WatermarkNode struct {
	Base
	Text string `json:"text"`
}

func (*ModelLoaderNode) nodeType() NodeType         { return TypeModelLoader }
func (*CompelPromptNode) nodeType() NodeType        { return TypeCompelPrompt }
func (*InfillTileNode) nodeType() NodeType          { return TypeInfillTile }
func (*InfillPatchMatchNode) nodeType() NodeType    { return TypeInfillPatchMatch }
func (*ImageToLatentsNode) nodeType() NodeType      { return TypeImageToLatents }
func (*MaskFromAlphaNode) nodeType() NodeType       { return TypeMaskFromAlpha }
func (*MaskCombineNode) nodeType() NodeType         { return TypeMaskCombine }
func (*ImageBlurNode) nodeType() NodeType           { return TypeImageBlur }
func (*NoiseNode) nodeType() NodeType               { return TypeNoise }
func (*DenoiseLatentsNode) nodeType() NodeType      { return TypeDenoiseLatents }
func (*LatentsToImageNode) nodeType() NodeType      { return TypeLatentsToImage }
func (*ColorCorrectNode) nodeType() NodeType        { return TypeColorCorrect }
func (*ImagePasteNode) nodeType() NodeType          { return TypeImagePaste }
func (*RangeOfSizeNode) nodeType() NodeType         { return TypeRangeOfSize }
func (*IterateNode) nodeType() NodeType             { return TypeIterate }
func (*RandomIntNode) nodeType() NodeType           { return TypeRandomInt }
func (*RefinerModelLoaderNode) nodeType() NodeType  { return TypeRefinerModelLoader }
func (*RefinerCompelPromptNode) nodeType() NodeType { return TypeRefinerCompelPrompt }
func (*LoRALoaderNode) nodeType() NodeType          { return TypeLoRALoader }
func (*ControlNetNode) nodeType() NodeType          { return TypeControlNet }
func (*CollectNode) nodeType() NodeType             { return TypeCollect }
func (*VAELoaderNode) nodeType() NodeType           { return TypeVAELoader }
func (*NSFWCheckerNode) nodeType() NodeType         { return TypeNSFWChecker }
func (*WatermarkNode) nodeType() NodeType           { return TypeWatermark }

func (n *ModelLoaderNode) clone() Node         { return cloneOf(n) }
func (n *CompelPromptNode) clone() Node        { return cloneOf(n) }
func (n *ImageToLatentsNode) clone() Node      { return cloneOf(n) }
func (n *ImageBlurNode) clone() Node           { return cloneOf(n) }
func (n *NoiseNode) clone() Node               { return cloneOf(n) }
func (n *DenoiseLatentsNode) clone() Node      { return cloneOf(n) }
func (n *LatentsToImageNode) clone() Node      { return cloneOf(n) }
func (n *ColorCorrectNode) clone() Node        { return cloneOf(n) }
func (n *ImagePasteNode) clone() Node          { return cloneOf(n) }
func (n *IterateNode) clone() Node             { return cloneOf(n) }
func (n *RandomIntNode) clone() Node           { return cloneOf(n) }
func (n *RefinerModelLoaderNode) clone() Node  { return cloneOf(n) }
func (n *RefinerCompelPromptNode) clone() Node { return cloneOf(n) }
func (n *LoRALoaderNode) clone() Node          { return cloneOf(n) }
func (n *CollectNode) clone() Node             { return cloneOf(n) }
func (n *VAELoaderNode) clone() Node           { return cloneOf(n) }
func (n *NSFWCheckerNode) clone() Node         { return cloneOf(n) }
func (n *WatermarkNode) clone() Node           { return cloneOf(n) }

func (n *RangeOfSizeNode) clone() Node {
	c := cloneOf(n)
	if n.Start != nil {
		start := *n.Start
		c.Start = &start
	}
	return c
}

func (n *InfillTileNode) clone() Node {
	c := cloneOf(n)
	c.Image = cloneImage(n.Image)
	return c
}

func (n *InfillPatchMatchNode) clone() Node {
	c := cloneOf(n)
	c.Image = cloneImage(n.Image)
	return c
}

func (n *MaskFromAlphaNode) clone() Node {
	c := cloneOf(n)
	c.Image = cloneImage(n.Image)
	return c
}

func (n *MaskCombineNode) clone() Node {
	c := cloneOf(n)
	c.Mask2 = cloneImage(n.Mask2)
	return c
}

func (n *ControlNetNode) clone() Node {
	c := cloneOf(n)
	c.Image = cloneImage(n.Image)
	return c
}

func cloneImage(f *ImageField) *ImageField {
	if f == nil {
		return nil
	}
	return cloneOf(f)
}
