package augment

import (
	"fmt"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// ControlNet feeds every enabled guidance input through a collector into
// the denoiser's "control" port. It does nothing when none is enabled.
type ControlNet struct{}

// Name implements canvasgraph.Stage.
func (ControlNet) Name() string { return "controlnet" }

// Apply implements canvasgraph.Stage.
func (ControlNet) Apply(g *canvasgraph.Graph, a canvasgraph.Anchors, cfg canvasgraph.Config) error {
	var enabled []canvasgraph.ControlNetConfig
	for _, c := range cfg.ControlNets {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	if err := g.AddNode(&canvasgraph.CollectNode{
		Base: canvasgraph.Base{ID: ControlNetCollectID, IsIntermediate: true},
	}); err != nil {
		return err
	}
	if err := g.AddEdge(canvasgraph.At(ControlNetCollectID, "collection"), canvasgraph.At(a.Denoiser, "control")); err != nil {
		return err
	}

	for i, c := range enabled {
		id := ControlNetID(i)
		node := &canvasgraph.ControlNetNode{
			Base:             canvasgraph.Base{ID: id, IsIntermediate: true},
			ControlModel:     c.Model,
			ControlWeight:    c.Weight,
			BeginStepPercent: c.BeginStepPercent,
			EndStepPercent:   c.EndStepPercent,
			ControlMode:      c.ControlMode,
			ResizeMode:       c.ResizeMode,
		}
		if c.Image != "" {
			node.Image = &canvasgraph.ImageField{ImageName: c.Image}
		}
		if err := g.AddNode(node); err != nil {
			return err
		}
		if err := g.AddEdge(canvasgraph.At(id, "control"), canvasgraph.At(ControlNetCollectID, "item")); err != nil {
			return err
		}
	}
	return nil
}

// ControlNetID returns the node ID of the i-th enabled guidance input.
func ControlNetID(i int) string {
	return fmt.Sprintf("control_net_%d", i)
}
