package canvasgraph

import (
	"encoding/json"
)

// Pipeline is a finished, validated, immutable graph.
// It is created by calling Finish on a Graph builder.
//
// Pipeline is safe for concurrent use. Accessors hand out copies, so the
// graph cannot be changed after it is returned.
type Pipeline struct {
	id      string
	nodes   map[string]Node
	order   []string
	edges   []Edge
	anchors []string
	output  string

	// Pre-computed for efficient lookup
	successors   map[string][]string
	predecessors map[string][]string
}

// index pre-computes adjacency once validation has passed.
func (p *Pipeline) index() {
	p.successors = make(map[string][]string)
	p.predecessors = make(map[string][]string)
	for _, e := range p.edges {
		p.successors[e.Source.NodeID] = appendUnique(p.successors[e.Source.NodeID], e.Destination.NodeID)
		p.predecessors[e.Destination.NodeID] = appendUnique(p.predecessors[e.Destination.NodeID], e.Source.NodeID)
	}
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

// ID returns the graph identifier.
func (p *Pipeline) ID() string {
	return p.id
}

// Output returns the ID of the node surfaced as the final result.
func (p *Pipeline) Output() string {
	return p.output
}

// NodeIDs returns all node identifiers in the order they were added.
func (p *Pipeline) NodeIDs() []string {
	ids := make([]string, len(p.order))
	copy(ids, p.order)
	return ids
}

// Len returns the number of nodes.
func (p *Pipeline) Len() int {
	return len(p.nodes)
}

// HasNode checks if a node exists in the graph.
func (p *Pipeline) HasNode(id string) bool {
	_, ok := p.nodes[id]
	return ok
}

// Node returns a copy of the node with the given ID.
func (p *Pipeline) Node(id string) (Node, bool) {
	n, ok := p.nodes[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// NodesOfType returns copies of every node with the given type tag,
// in the order they were added.
func (p *Pipeline) NodesOfType(t NodeType) []Node {
	var result []Node
	for _, id := range p.order {
		if n := p.nodes[id]; n.nodeType() == t {
			result = append(result, n.clone())
		}
	}
	return result
}

// Edges returns a copy of the edges in insertion order.
func (p *Pipeline) Edges() []Edge {
	edges := make([]Edge, len(p.edges))
	copy(edges, p.edges)
	return edges
}

// EdgeInto returns the first edge writing to the given input port.
func (p *Pipeline) EdgeInto(dst EdgeConnection) (Edge, bool) {
	for _, e := range p.edges {
		if e.Destination == dst {
			return e, true
		}
	}
	return Edge{}, false
}

// Successors returns the IDs of nodes that consume any output of the given node.
func (p *Pipeline) Successors(id string) []string {
	return append([]string(nil), p.successors[id]...)
}

// Predecessors returns the IDs of nodes feeding any input of the given node.
func (p *Pipeline) Predecessors(id string) []string {
	return append([]string(nil), p.predecessors[id]...)
}

// reachable reports whether to can be reached from "from" along the edges.
func (p *Pipeline) reachable(from, to string) bool {
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range p.successors[current] {
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

// TopologicalOrder returns the node IDs so that every edge points forward.
// Ties are broken by insertion order, so the result is deterministic.
func (p *Pipeline) TopologicalOrder() []string {
	order, _ := topoSort(p.order, p.edges)
	return order
}

// wireGraph is the engine's JSON form of a graph.
type wireGraph struct {
	ID    string                     `json:"id"`
	Nodes map[string]json.RawMessage `json:"nodes"`
	Edges []Edge                     `json:"edges"`
}

// MarshalJSON encodes the pipeline in the execution engine's schema:
// {"id": ..., "nodes": {id: node}, "edges": [{source, destination}]}.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	w := wireGraph{
		ID:    p.id,
		Nodes: make(map[string]json.RawMessage, len(p.nodes)),
		Edges: p.edges,
	}
	if w.Edges == nil {
		w.Edges = []Edge{}
	}
	for id, n := range p.nodes {
		raw, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		w.Nodes[id] = raw
	}
	return json.Marshal(w)
}
