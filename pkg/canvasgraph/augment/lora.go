package augment

import (
	"fmt"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// loraPorts are the model loader outputs an adapter patches.
var loraPorts = []string{"unet", "clip", "clip2"}

// LoRA chains one adapter loader per configured LoRA between the model
// loader and everything that consumed its unet and text encoders.
// It does nothing when no adapters are configured.
type LoRA struct{}

// Name implements canvasgraph.Stage.
func (LoRA) Name() string { return "lora" }

// Apply implements canvasgraph.Stage.
func (LoRA) Apply(g *canvasgraph.Graph, a canvasgraph.Anchors, cfg canvasgraph.Config) error {
	if len(cfg.LoRAs) == 0 {
		return nil
	}

	consumers := make(map[string][]canvasgraph.Edge, len(loraPorts))
	for _, port := range loraPorts {
		consumers[port] = g.EdgesFrom(canvasgraph.At(a.ModelLoader, port))
	}

	prev := a.ModelLoader
	for i, l := range cfg.LoRAs {
		id := LoRAID(i)
		if err := g.AddNode(&canvasgraph.LoRALoaderNode{
			Base:   canvasgraph.Base{ID: id, IsIntermediate: true},
			LoRA:   l.Model,
			Weight: l.Weight,
		}); err != nil {
			return err
		}
		for _, port := range loraPorts {
			if err := g.AddEdge(canvasgraph.At(prev, port), canvasgraph.At(id, port)); err != nil {
				return err
			}
		}
		prev = id
	}

	for _, port := range loraPorts {
		for _, e := range consumers[port] {
			if err := g.Redirect(e.Destination, canvasgraph.At(prev, port)); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoRAID returns the node ID of the i-th adapter loader.
func LoRAID(i int) string {
	return fmt.Sprintf("lora_loader_%d", i)
}
