package augment

import (
	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// VAE supplies the "vae" input of every image encoder and latent decoder.
// The VAE comes from a dedicated loader when an override model is
// configured and from the model loader otherwise.
type VAE struct{}

// Name implements canvasgraph.Stage.
func (VAE) Name() string { return "vae" }

// Apply implements canvasgraph.Stage.
func (VAE) Apply(g *canvasgraph.Graph, a canvasgraph.Anchors, cfg canvasgraph.Config) error {
	source := canvasgraph.At(a.ModelLoader, "vae")
	if cfg.VAE != nil && cfg.VAE.ModelName != "" {
		if err := g.AddNode(&canvasgraph.VAELoaderNode{
			Base:     canvasgraph.Base{ID: VAELoaderID},
			VAEModel: *cfg.VAE,
		}); err != nil {
			return err
		}
		source = canvasgraph.At(VAELoaderID, "vae")
	}

	fp32 := cfg.VAEPrecision == "fp32"
	for _, n := range g.NodesOfType(canvasgraph.TypeImageToLatents) {
		n.(*canvasgraph.ImageToLatentsNode).FP32 = fp32
		if err := g.AddEdge(source, canvasgraph.At(n.Header().ID, "vae")); err != nil {
			return err
		}
	}
	for _, n := range g.NodesOfType(canvasgraph.TypeLatentsToImage) {
		n.(*canvasgraph.LatentsToImageNode).FP32 = fp32
		if err := g.AddEdge(source, canvasgraph.At(n.Header().ID, "vae")); err != nil {
			return err
		}
	}
	return nil
}
