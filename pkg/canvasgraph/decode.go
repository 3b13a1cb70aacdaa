package canvasgraph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Decode reads a graph in the execution engine's JSON schema and rebuilds it
// through the builder, so every node type, port and edge is checked again.
// anchors are the node IDs that must be present, typically BaseAnchors().
//
// The output anchor is the one non-intermediate node nothing reads from,
// when there is exactly one.
func Decode(data []byte, anchors ...string) (*Pipeline, error) {
	var w struct {
		ID    string                     `json:"id"`
		Nodes map[string]json.RawMessage `json:"nodes"`
		Edges []Edge                     `json:"edges"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}

	ids := make([]string, 0, len(w.Nodes))
	for id := range w.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := NewGraph(w.ID)
	for _, key := range ids {
		n, err := decodeNode(key, w.Nodes[key])
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range w.Edges {
		if err := g.AddEdge(e.Source, e.Destination); err != nil {
			return nil, err
		}
	}

	g.RequireAnchors(anchors...)
	if out, ok := soleOutput(g); ok {
		if err := g.SetOutput(out); err != nil {
			return nil, err
		}
	}
	return g.Finish()
}

func decodeNode(key string, raw json.RawMessage) (Node, error) {
	var header Base
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("decode node %s: %w", key, err)
	}
	if header.ID != key {
		return nil, violation(ErrNodeIDMismatch, key, "", "node carries ID %q", header.ID)
	}
	n, ok := newNodeOfType(header.Type)
	if !ok {
		return nil, violation(ErrUnknownNodeType, key, "", "type %q is not in the catalog", header.Type)
	}
	if err := json.Unmarshal(raw, n); err != nil {
		return nil, fmt.Errorf("decode node %s: %w", key, err)
	}
	return n, nil
}

func soleOutput(g *Graph) (string, bool) {
	hasConsumer := make(map[string]bool, len(g.edges))
	for _, e := range g.edges {
		hasConsumer[e.Source.NodeID] = true
	}
	var found []string
	for _, id := range g.order {
		if !g.nodes[id].Header().IsIntermediate && !hasConsumer[id] {
			found = append(found, id)
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return found[0], true
}
