package augment

import (
	"fmt"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// ContentFilter runs the current output image through the NSFW checker,
// which becomes the new output.
type ContentFilter struct{}

// Name implements canvasgraph.Stage.
func (ContentFilter) Name() string { return "content_filter" }

// Apply implements canvasgraph.Stage.
func (ContentFilter) Apply(g *canvasgraph.Graph, _ canvasgraph.Anchors, _ canvasgraph.Config) error {
	return appendToOutput(g, &canvasgraph.NSFWCheckerNode{
		Base: canvasgraph.Base{ID: NSFWCheckerID},
	})
}

// Watermark burns an invisible watermark into the current output image.
// It must be the last stage so that nothing downstream sees an unmarked
// image.
type Watermark struct {
	// Text is embedded in the watermark. Empty uses the engine default.
	Text string
}

// Name implements canvasgraph.Stage.
func (Watermark) Name() string { return "watermark" }

// Apply implements canvasgraph.Stage.
func (w Watermark) Apply(g *canvasgraph.Graph, _ canvasgraph.Anchors, _ canvasgraph.Config) error {
	return appendToOutput(g, &canvasgraph.WatermarkNode{
		Base: canvasgraph.Base{ID: WatermarkerID},
		Text: w.Text,
	})
}

// appendToOutput inserts n after the current output and makes it the
// output. The previous output becomes intermediate.
func appendToOutput(g *canvasgraph.Graph, n canvasgraph.Node) error {
	prevID := g.Output()
	prev, ok := g.Node(prevID)
	if !ok {
		return fmt.Errorf("no output node to attach %s to", n.Header().ID)
	}
	if err := g.AddNode(n); err != nil {
		return err
	}
	id := n.Header().ID
	if err := g.AddEdge(canvasgraph.At(prevID, "image"), canvasgraph.At(id, "image")); err != nil {
		return err
	}
	prev.Header().IsIntermediate = true
	return g.SetOutput(id)
}
