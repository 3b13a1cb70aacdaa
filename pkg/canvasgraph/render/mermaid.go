// Package render draws assembled pipelines for humans.
package render

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

// Mermaid produces a Mermaid flowchart of the pipeline.
//
// Nodes are emitted in topological order and labelled "id<br/>type".
// Edges carry "source_field → destination_field" labels. Shapes:
//   - model loaders: [[Subroutine]]
//   - the output node: ((Circle))
//   - everything else: [Rectangle]
//
// Non-intermediate nodes get the "surfaced" class.
func Mermaid(p *canvasgraph.Pipeline) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	var surfaced []string
	for _, id := range p.TopologicalOrder() {
		n, _ := p.Node(id)
		h := n.Header()

		opener, closer := "[", "]"
		switch {
		case id == p.Output():
			opener, closer = "((", "))"
		case isLoader(h.Type):
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s<br/>%s\"%s\n", sanitizeID(id), opener, id, h.Type, closer)
		if !h.IsIntermediate {
			surfaced = append(surfaced, sanitizeID(id))
		}
	}

	for _, e := range p.Edges() {
		fmt.Fprintf(&sb, "    %s -- \"%s → %s\" --> %s\n",
			sanitizeID(e.Source.NodeID), e.Source.Field, e.Destination.Field, sanitizeID(e.Destination.NodeID))
	}

	if len(surfaced) > 0 {
		sb.WriteString("\n    classDef surfaced stroke-width:3px;\n")
		fmt.Fprintf(&sb, "    class %s surfaced;\n", strings.Join(surfaced, ","))
	}
	return sb.String()
}

func isLoader(t canvasgraph.NodeType) bool {
	switch t {
	case canvasgraph.TypeModelLoader, canvasgraph.TypeRefinerModelLoader,
		canvasgraph.TypeLoRALoader, canvasgraph.TypeVAELoader:
		return true
	}
	return false
}

func sanitizeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
