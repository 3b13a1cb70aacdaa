package augment

import (
	"fmt"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// Refiner hands the tail of the denoising schedule to a second model.
//
// It adds a refiner loader, two refiner conditioning nodes and a refiner
// denoiser that starts where the base denoiser stops. Everything that read
// the base denoiser's latents is redirected to the refiner's.
type Refiner struct{}

// Name implements canvasgraph.Stage.
func (Refiner) Name() string { return "refiner" }

// Apply implements canvasgraph.Stage.
func (Refiner) Apply(g *canvasgraph.Graph, a canvasgraph.Anchors, cfg canvasgraph.Config) error {
	rc := cfg.Refiner
	if rc.Model == nil {
		return fmt.Errorf("refiner: no refiner model configured")
	}

	// Consumers of the base latents, captured before the refiner adds its own.
	baseOut := canvasgraph.At(a.Denoiser, "latents")
	consumers := g.EdgesFrom(baseOut)

	noise, ok := g.EdgeInto(canvasgraph.At(a.Denoiser, "noise"))
	if !ok {
		return fmt.Errorf("refiner: denoiser %s has no noise input", a.Denoiser)
	}
	mask, hasMask := g.EdgeInto(canvasgraph.At(a.Denoiser, "mask"))

	positiveStyle, negativeStyle := cfg.StylePrompts()
	nodes := []canvasgraph.Node{
		&canvasgraph.RefinerModelLoaderNode{
			Base:  canvasgraph.Base{ID: RefinerModelLoaderID},
			Model: *rc.Model,
		},
		&canvasgraph.RefinerCompelPromptNode{
			Base:           canvasgraph.Base{ID: RefinerPositiveConditioningID},
			Style:          positiveStyle,
			AestheticScore: rc.PositiveAestheticScore,
		},
		&canvasgraph.RefinerCompelPromptNode{
			Base:           canvasgraph.Base{ID: RefinerNegativeConditioningID},
			Style:          negativeStyle,
			AestheticScore: rc.NegativeAestheticScore,
		},
		&canvasgraph.DenoiseLatentsNode{
			Base:           canvasgraph.Base{ID: RefinerDenoiseLatentsID, IsIntermediate: true},
			Steps:          rc.Steps,
			CFGScale:       rc.CFGScale,
			Scheduler:      rc.Scheduler,
			DenoisingStart: rc.Start,
			DenoisingEnd:   1.0,
		},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return err
		}
	}

	edges := []canvasgraph.Edge{
		{Source: canvasgraph.At(RefinerModelLoaderID, "unet"), Destination: canvasgraph.At(RefinerDenoiseLatentsID, "unet")},
		{Source: canvasgraph.At(RefinerModelLoaderID, "clip2"), Destination: canvasgraph.At(RefinerPositiveConditioningID, "clip2")},
		{Source: canvasgraph.At(RefinerModelLoaderID, "clip2"), Destination: canvasgraph.At(RefinerNegativeConditioningID, "clip2")},
		{Source: canvasgraph.At(RefinerPositiveConditioningID, "conditioning"), Destination: canvasgraph.At(RefinerDenoiseLatentsID, "positive_conditioning")},
		{Source: canvasgraph.At(RefinerNegativeConditioningID, "conditioning"), Destination: canvasgraph.At(RefinerDenoiseLatentsID, "negative_conditioning")},
		{Source: noise.Source, Destination: canvasgraph.At(RefinerDenoiseLatentsID, "noise")},
		{Source: baseOut, Destination: canvasgraph.At(RefinerDenoiseLatentsID, "latents")},
	}
	if hasMask {
		edges = append(edges, canvasgraph.Edge{Source: mask.Source, Destination: canvasgraph.At(RefinerDenoiseLatentsID, "mask")})
	}
	for _, e := range edges {
		if err := g.AddEdge(e.Source, e.Destination); err != nil {
			return err
		}
	}

	refinedOut := canvasgraph.At(RefinerDenoiseLatentsID, "latents")
	for _, e := range consumers {
		if err := g.Redirect(e.Destination, refinedOut); err != nil {
			return err
		}
	}
	return nil
}
