package canvasgraph

// NodeType is the catalog tag carried in every node's "type" field.
//
// The set is append-only: the execution engine interprets graphs by these
// tags and port names, so existing values must never be renamed.
type NodeType string

// Base pipeline node types.
const (
	TypeModelLoader      NodeType = "sdxl_model_loader"
	TypeCompelPrompt     NodeType = "sdxl_compel_prompt"
	TypeInfillTile       NodeType = "infill_tile"
	TypeInfillPatchMatch NodeType = "infill_patchmatch"
	TypeImageToLatents   NodeType = "i2l"
	TypeMaskFromAlpha    NodeType = "tomask"
	TypeMaskCombine      NodeType = "mask_combine"
	TypeImageBlur        NodeType = "img_blur"
	TypeNoise            NodeType = "noise"
	TypeDenoiseLatents   NodeType = "denoise_latents"
	TypeLatentsToImage   NodeType = "l2i"
	TypeColorCorrect     NodeType = "color_correct"
	TypeImagePaste       NodeType = "img_paste"
	TypeRangeOfSize      NodeType = "range_of_size"
	TypeIterate          NodeType = "iterate"
	TypeRandomInt        NodeType = "rand_int"
)

// Node types contributed by augmentation stages.
const (
	TypeRefinerModelLoader  NodeType = "sdxl_refiner_model_loader"
	TypeRefinerCompelPrompt NodeType = "sdxl_refiner_compel_prompt"
	TypeLoRALoader          NodeType = "sdxl_lora_loader"
	TypeControlNet          NodeType = "controlnet"
	TypeCollect             NodeType = "collect"
	TypeVAELoader           NodeType = "vae_loader"
	TypeNSFWChecker         NodeType = "img_nsfw"
	TypeWatermark           NodeType = "img_watermark"
)

// PortKind is the kind of value flowing through a port.
type PortKind string

// Port kinds. KindAny is compatible with every other kind.
const (
	KindAny          PortKind = "any"
	KindUNet         PortKind = "unet"
	KindCLIP         PortKind = "clip"
	KindVAE          PortKind = "vae"
	KindConditioning PortKind = "conditioning"
	KindLatents      PortKind = "latents"
	KindNoise        PortKind = "noise"
	KindImage        PortKind = "image"
	KindInteger      PortKind = "integer"
	KindCollection   PortKind = "collection"
	KindControl      PortKind = "control"
)

// compatible reports whether a value of kind src may flow into a port of kind dst.
func (src PortKind) compatible(dst PortKind) bool {
	return src == dst || src == KindAny || dst == KindAny
}

// Port describes one named input or output slot of a node type.
type Port struct {
	Name string
	Kind PortKind
	// Collector input ports accept any number of incoming edges.
	Collector bool
}

// NodeSchema lists the ports a node type exposes.
type NodeSchema struct {
	Type    NodeType
	Inputs  []Port
	Outputs []Port
}

// Input returns the named input port.
func (s NodeSchema) Input(name string) (Port, bool) {
	return findPort(s.Inputs, name)
}

// Output returns the named output port.
func (s NodeSchema) Output(name string) (Port, bool) {
	return findPort(s.Outputs, name)
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

func in(name string, kind PortKind) Port  { return Port{Name: name, Kind: kind} }
func out(name string, kind PortKind) Port { return Port{Name: name, Kind: kind} }

type catalogEntry struct {
	schema  NodeSchema
	factory func() Node
}

var catalog = map[NodeType]catalogEntry{
	TypeModelLoader: {
		schema:  NodeSchema{Outputs: []Port{out("unet", KindUNet), out("clip", KindCLIP), out("clip2", KindCLIP), out("vae", KindVAE)}},
		factory: func() Node { return &ModelLoaderNode{} },
	},
	TypeCompelPrompt: {
		schema: NodeSchema{
			Inputs:  []Port{in("clip", KindCLIP), in("clip2", KindCLIP)},
			Outputs: []Port{out("conditioning", KindConditioning)},
		},
		factory: func() Node { return &CompelPromptNode{} },
	},
	TypeInfillTile: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage)},
			Outputs: []Port{out("image", KindImage), out("width", KindInteger), out("height", KindInteger)},
		},
		factory: func() Node { return &InfillTileNode{} },
	},
	TypeInfillPatchMatch: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage)},
			Outputs: []Port{out("image", KindImage), out("width", KindInteger), out("height", KindInteger)},
		},
		factory: func() Node { return &InfillPatchMatchNode{} },
	},
	TypeImageToLatents: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage), in("vae", KindVAE)},
			Outputs: []Port{out("latents", KindLatents), out("width", KindInteger), out("height", KindInteger)},
		},
		factory: func() Node { return &ImageToLatentsNode{} },
	},
	TypeMaskFromAlpha: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &MaskFromAlphaNode{} },
	},
	TypeMaskCombine: {
		schema: NodeSchema{
			Inputs:  []Port{in("mask1", KindImage), in("mask2", KindImage)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &MaskCombineNode{} },
	},
	TypeImageBlur: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &ImageBlurNode{} },
	},
	TypeNoise: {
		schema: NodeSchema{
			Inputs:  []Port{in("seed", KindInteger)},
			Outputs: []Port{out("noise", KindNoise), out("width", KindInteger), out("height", KindInteger)},
		},
		factory: func() Node { return &NoiseNode{} },
	},
	TypeDenoiseLatents: {
		schema: NodeSchema{
			Inputs: []Port{
				in("unet", KindUNet),
				in("positive_conditioning", KindConditioning),
				in("negative_conditioning", KindConditioning),
				in("noise", KindNoise),
				in("latents", KindLatents),
				in("mask", KindImage),
				in("control", KindControl),
			},
			Outputs: []Port{out("latents", KindLatents)},
		},
		factory: func() Node { return &DenoiseLatentsNode{} },
	},
	TypeLatentsToImage: {
		schema: NodeSchema{
			Inputs:  []Port{in("latents", KindLatents), in("vae", KindVAE)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &LatentsToImageNode{} },
	},
	TypeColorCorrect: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage), in("reference", KindImage), in("mask", KindImage)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &ColorCorrectNode{} },
	},
	TypeImagePaste: {
		schema: NodeSchema{
			Inputs:  []Port{in("base_image", KindImage), in("image", KindImage), in("mask", KindImage)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &ImagePasteNode{} },
	},
	TypeRangeOfSize: {
		schema: NodeSchema{
			Inputs:  []Port{in("start", KindInteger)},
			Outputs: []Port{out("collection", KindCollection)},
		},
		factory: func() Node { return &RangeOfSizeNode{} },
	},
	TypeIterate: {
		schema: NodeSchema{
			Inputs:  []Port{in("collection", KindCollection)},
			Outputs: []Port{out("item", KindAny), out("index", KindInteger), out("total", KindInteger)},
		},
		factory: func() Node { return &IterateNode{} },
	},
	TypeRandomInt: {
		schema:  NodeSchema{Outputs: []Port{out("value", KindInteger)}},
		factory: func() Node { return &RandomIntNode{} },
	},
	TypeRefinerModelLoader: {
		schema:  NodeSchema{Outputs: []Port{out("unet", KindUNet), out("clip2", KindCLIP), out("vae", KindVAE)}},
		factory: func() Node { return &RefinerModelLoaderNode{} },
	},
	TypeRefinerCompelPrompt: {
		schema: NodeSchema{
			Inputs:  []Port{in("clip2", KindCLIP)},
			Outputs: []Port{out("conditioning", KindConditioning)},
		},
		factory: func() Node { return &RefinerCompelPromptNode{} },
	},
	TypeLoRALoader: {
		schema: NodeSchema{
			Inputs:  []Port{in("unet", KindUNet), in("clip", KindCLIP), in("clip2", KindCLIP)},
			Outputs: []Port{out("unet", KindUNet), out("clip", KindCLIP), out("clip2", KindCLIP)},
		},
		factory: func() Node { return &LoRALoaderNode{} },
	},
	TypeControlNet: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage)},
			Outputs: []Port{out("control", KindControl)},
		},
		factory: func() Node { return &ControlNetNode{} },
	},
	TypeCollect: {
		schema: NodeSchema{
			Inputs:  []Port{{Name: "item", Kind: KindAny, Collector: true}},
			Outputs: []Port{out("collection", KindAny)},
		},
		factory: func() Node { return &CollectNode{} },
	},
	TypeVAELoader: {
		schema:  NodeSchema{Outputs: []Port{out("vae", KindVAE)}},
		factory: func() Node { return &VAELoaderNode{} },
	},
	TypeNSFWChecker: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &NSFWCheckerNode{} },
	},
	TypeWatermark: {
		schema: NodeSchema{
			Inputs:  []Port{in("image", KindImage)},
			Outputs: []Port{out("image", KindImage)},
		},
		factory: func() Node { return &WatermarkNode{} },
	},
}

// SchemaFor returns a copy of the port schema of a node type.
func SchemaFor(t NodeType) (NodeSchema, bool) {
	e, ok := catalog[t]
	if !ok {
		return NodeSchema{}, false
	}
	return NodeSchema{
		Type:    t,
		Inputs:  append([]Port(nil), e.schema.Inputs...),
		Outputs: append([]Port(nil), e.schema.Outputs...),
	}, true
}

// NodeTypes returns every catalog tag.
// The order is not guaranteed.
func NodeTypes() []NodeType {
	types := make([]NodeType, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	return types
}

// newNodeOfType returns an empty variant for t, used when decoding.
func newNodeOfType(t NodeType) (Node, bool) {
	e, ok := catalog[t]
	if !ok {
		return nil, false
	}
	return e.factory(), true
}
