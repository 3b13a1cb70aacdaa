package canvasgraph

import (
	"reflect"
	"strings"
)

// Graph is a mutable builder for pipeline graphs.
// Use NewGraph to create one, add nodes and edges, then call Finish to
// validate it and obtain an immutable Pipeline.
//
// Every AddNode, AddEdge and Redirect call checks the structural invariants
// incrementally and returns a *GraphValidationError instead of changing the
// graph when one would be violated. Nodes and edges are never removed.
//
// Graph is NOT safe for concurrent use. Build it in a single goroutine.
//
// Example:
//
//	g := canvasgraph.NewGraph("my-graph")
//	_ = g.AddNode(&canvasgraph.RandomIntNode{Base: canvasgraph.Base{ID: "seed"}, High: 100})
//	_ = g.AddNode(&canvasgraph.RangeOfSizeNode{Base: canvasgraph.Base{ID: "range"}, Size: 4, Step: 1})
//	_ = g.AddEdge(canvasgraph.At("seed", "value"), canvasgraph.At("range", "start"))
//	pipeline, err := g.Finish()
type Graph struct {
	id      string
	nodes   map[string]Node
	order   []string
	edges   []Edge
	writers map[EdgeConnection]int // destination -> index in edges, single-writer ports only
	anchors []string
	output  string
}

// NewGraph creates an empty graph builder.
func NewGraph(id string) *Graph {
	return &Graph{
		id:      id,
		nodes:   make(map[string]Node),
		writers: make(map[EdgeConnection]int),
	}
}

// ID returns the graph identifier.
func (g *Graph) ID() string {
	return g.id
}

// AddNode adds a node. The node's type tag is set from its variant.
//
// Fails if:
//   - n is nil or a nil variant pointer, or its ID is empty or contains whitespace
//   - a node with the same ID already exists
//   - the node carries a type tag that disagrees with its variant
func (g *Graph) AddNode(n Node) error {
	if n == nil || isNilVariant(n) {
		return violation(ErrInvalidNodeID, "", "", "node is nil")
	}
	h := n.Header()
	if h.ID == "" {
		return violation(ErrInvalidNodeID, "", "", "node ID cannot be empty")
	}
	if strings.ContainsAny(h.ID, " \t\n\r") {
		return violation(ErrInvalidNodeID, h.ID, "", "node ID cannot contain whitespace")
	}
	if _, exists := g.nodes[h.ID]; exists {
		return violation(ErrDuplicateNode, h.ID, "", "node already exists")
	}
	if h.Type != "" && h.Type != n.nodeType() {
		return violation(ErrUnknownNodeType, h.ID, "", "type tag %q does not match variant %q", h.Type, n.nodeType())
	}

	h.Type = n.nodeType()
	g.nodes[h.ID] = n
	g.order = append(g.order, h.ID)
	return nil
}

func isNilVariant(n Node) bool {
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// AddEdge connects an output port to an input port.
//
// Fails if either node is missing, either port is not declared by the node's
// type, the port kinds are incompatible, the destination already has a writer
// (collector ports excepted), or the edge would close a cycle.
func (g *Graph) AddEdge(src, dst EdgeConnection) error {
	port, err := g.checkPorts(src, dst)
	if err != nil {
		return err
	}
	if !port.Collector {
		if idx, taken := g.writers[dst]; taken {
			return violation(ErrPortAlreadyWritten, dst.NodeID, dst.Field,
				"already written by %s", g.edges[idx].Source)
		}
	}
	if g.reaches(dst.NodeID, src.NodeID, -1) {
		return violation(ErrCycle, dst.NodeID, dst.Field, "edge from %s would close a cycle", src)
	}

	g.edges = append(g.edges, Edge{Source: src, Destination: dst})
	if !port.Collector {
		g.writers[dst] = len(g.edges) - 1
	}
	return nil
}

// Redirect re-points the existing writer of a single-writer input port to a
// new source. The edge keeps its position, so the edge count is unchanged.
// Stages use this to splice a node between a producer and its consumers.
func (g *Graph) Redirect(dst, newSrc EdgeConnection) error {
	idx, ok := g.writers[dst]
	if !ok {
		return violation(ErrNoWriter, dst.NodeID, dst.Field, "nothing to redirect")
	}
	if _, err := g.checkPorts(newSrc, dst); err != nil {
		return err
	}
	if g.reaches(dst.NodeID, newSrc.NodeID, idx) {
		return violation(ErrCycle, dst.NodeID, dst.Field, "redirect from %s would close a cycle", newSrc)
	}
	g.edges[idx].Source = newSrc
	return nil
}

// checkPorts verifies both endpoints and returns the destination port.
func (g *Graph) checkPorts(src, dst EdgeConnection) (Port, error) {
	srcNode, ok := g.nodes[src.NodeID]
	if !ok {
		return Port{}, violation(ErrNodeNotFound, src.NodeID, src.Field, "edge source does not exist")
	}
	dstNode, ok := g.nodes[dst.NodeID]
	if !ok {
		return Port{}, violation(ErrNodeNotFound, dst.NodeID, dst.Field, "edge destination does not exist")
	}

	srcSchema, _ := SchemaFor(srcNode.nodeType())
	outPort, ok := srcSchema.Output(src.Field)
	if !ok {
		return Port{}, violation(ErrUnknownPort, src.NodeID, src.Field, "%s has no output %q", srcSchema.Type, src.Field)
	}
	dstSchema, _ := SchemaFor(dstNode.nodeType())
	inPort, ok := dstSchema.Input(dst.Field)
	if !ok {
		return Port{}, violation(ErrUnknownPort, dst.NodeID, dst.Field, "%s has no input %q", dstSchema.Type, dst.Field)
	}
	if !outPort.Kind.compatible(inPort.Kind) {
		return Port{}, violation(ErrPortKindMismatch, dst.NodeID, dst.Field,
			"cannot connect %s (%s) to %s (%s)", src, outPort.Kind, dst, inPort.Kind)
	}
	return inPort, nil
}

// reaches reports whether to is reachable from "from" along the current
// edges, ignoring the edge at index skip.
func (g *Graph) reaches(from, to string, skip int) bool {
	if from == to {
		return true
	}
	adj := make(map[string][]string)
	for i, e := range g.edges {
		if i == skip {
			continue
		}
		adj[e.Source.NodeID] = append(adj[e.Source.NodeID], e.Destination.NodeID)
	}

	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adj[current] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Node returns the node with the given ID.
// The returned node may be modified until Finish is called.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodesOfType returns the nodes with the given type tag in the order they
// were added. The returned nodes may be modified until Finish is called.
func (g *Graph) NodesOfType(t NodeType) []Node {
	var result []Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.nodeType() == t {
			result = append(result, n)
		}
	}
	return result
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Edges returns a copy of the edges in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// EdgesFrom returns the edges leaving the given output port.
func (g *Graph) EdgesFrom(src EdgeConnection) []Edge {
	var result []Edge
	for _, e := range g.edges {
		if e.Source == src {
			result = append(result, e)
		}
	}
	return result
}

// EdgeInto returns the edge writing to a single-writer input port.
func (g *Graph) EdgeInto(dst EdgeConnection) (Edge, bool) {
	idx, ok := g.writers[dst]
	if !ok {
		return Edge{}, false
	}
	return g.edges[idx], true
}

// RequireAnchors declares node IDs that must be present when the graph is finished.
func (g *Graph) RequireAnchors(ids ...string) {
	g.anchors = append(g.anchors, ids...)
}

// SetOutput designates the node whose image is surfaced as the final result.
// Stages that insert themselves after the current output call this to take
// its place.
func (g *Graph) SetOutput(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return violation(ErrNodeNotFound, id, "", "output node does not exist")
	}
	g.output = id
	return nil
}

// Output returns the current output anchor, or "" if none is set.
func (g *Graph) Output() string {
	return g.output
}

// Finish validates the graph and returns an immutable Pipeline.
// No Pipeline is returned when validation fails.
func (g *Graph) Finish() (*Pipeline, error) {
	p := g.snapshot()
	if err := Validate(p); err != nil {
		return nil, err
	}
	p.index()
	return p, nil
}

// snapshot deep-copies the builder state.
func (g *Graph) snapshot() *Pipeline {
	nodes := make(map[string]Node, len(g.nodes))
	for id, n := range g.nodes {
		nodes[id] = n.clone()
	}
	order := make([]string, len(g.order))
	copy(order, g.order)
	anchors := make([]string, len(g.anchors))
	copy(anchors, g.anchors)

	return &Pipeline{
		id:      g.id,
		nodes:   nodes,
		order:   order,
		edges:   g.Edges(),
		anchors: anchors,
		output:  g.output,
	}
}
