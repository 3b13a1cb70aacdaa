// Package augment provides the stock augmentation stages for the outpaint
// graph: refiner, VAE override, LoRA, ControlNet, content filter and
// watermark.
//
// Each stage satisfies canvasgraph.Stage and only touches the graph through
// the builder, so every edit is checked against the wiring rules as it is
// made. Pass Defaults() to canvasgraph.WithStages to enable all of them:
//
//	a := canvasgraph.NewAssembler(canvasgraph.WithStages(augment.Defaults()))
//	pipeline, err := a.Assemble(ctx, cfg)
package augment

import "github.com/randalmurphal/canvasgraph/pkg/canvasgraph"

// Node IDs added by the stages.
const (
	RefinerModelLoaderID          = "sdxl_refiner_model_loader"
	RefinerPositiveConditioningID = "sdxl_refiner_positive_conditioning"
	RefinerNegativeConditioningID = "sdxl_refiner_negative_conditioning"
	RefinerDenoiseLatentsID       = "sdxl_refiner_denoise_latents"
	VAELoaderID                   = "vae_loader"
	ControlNetCollectID           = "control_net_collect"
	NSFWCheckerID                 = "nsfw_checker"
	WatermarkerID                 = "watermarker"
)

// Defaults returns every stock stage in its slot.
func Defaults() canvasgraph.Stages {
	return canvasgraph.Stages{
		Refiner:       Refiner{},
		VAE:           VAE{},
		LoRA:          LoRA{},
		ControlNet:    ControlNet{},
		ContentFilter: ContentFilter{},
		Watermark:     Watermark{},
	}
}
