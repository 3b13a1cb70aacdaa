package canvasgraph

import (
	"container/heap"
	"strings"
)

// Validate checks the structural invariants of a finished graph and returns
// the first violation found as a *GraphValidationError.
//
// Checks (in order):
//  1. Every node's own ID matches its key and its type is in the catalog
//  2. Every edge endpoint refers to a node in the graph
//  3. No single-writer input port has more than one incoming edge
//  4. The edges form a DAG (topological sort succeeds)
//  5. Every required anchor node and the output anchor are present
//
// Validate does not attempt any repair.
func Validate(p *Pipeline) error {
	for _, id := range p.order {
		n := p.nodes[id]
		h := n.Header()
		if h.ID != id {
			return violation(ErrNodeIDMismatch, id, "", "node carries ID %q", h.ID)
		}
		if _, ok := SchemaFor(h.Type); !ok {
			return violation(ErrUnknownNodeType, id, "", "type %q is not in the catalog", h.Type)
		}
	}

	writers := make(map[EdgeConnection]EdgeConnection, len(p.edges))
	for _, e := range p.edges {
		if _, ok := p.nodes[e.Source.NodeID]; !ok {
			return violation(ErrNodeNotFound, e.Source.NodeID, e.Source.Field, "edge source does not exist")
		}
		dstNode, ok := p.nodes[e.Destination.NodeID]
		if !ok {
			return violation(ErrNodeNotFound, e.Destination.NodeID, e.Destination.Field, "edge destination does not exist")
		}
		schema, _ := SchemaFor(dstNode.nodeType())
		if port, ok := schema.Input(e.Destination.Field); ok && port.Collector {
			continue
		}
		if prev, taken := writers[e.Destination]; taken {
			return violation(ErrPortAlreadyWritten, e.Destination.NodeID, e.Destination.Field,
				"written by both %s and %s", prev, e.Source)
		}
		writers[e.Destination] = e.Source
	}

	if _, ok := topoSort(p.order, p.edges); !ok {
		return violation(ErrCycle, "", "", "edges do not form a DAG: %s", strings.Join(findCycle(p.order, p.edges), " -> "))
	}

	for _, id := range p.anchors {
		if _, ok := p.nodes[id]; !ok {
			return violation(ErrMissingAnchor, id, "", "required anchor node is absent")
		}
	}
	if p.output != "" {
		if _, ok := p.nodes[p.output]; !ok {
			return violation(ErrMissingAnchor, p.output, "", "output node is absent")
		}
	}
	return nil
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoSort orders node IDs with Kahn's algorithm. The ready queue is a
// min-heap over insertion index, so the order is deterministic.
// ok is false when a cycle prevents a complete ordering.
func topoSort(order []string, edges []Edge) (sorted []string, ok bool) {
	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}

	indeg := make([]int, len(order))
	outgoing := make([][]int, len(order))
	for _, e := range edges {
		from, okFrom := index[e.Source.NodeID]
		to, okTo := index[e.Destination.NodeID]
		if !okFrom || !okTo {
			continue
		}
		outgoing[from] = append(outgoing[from], to)
		indeg[to]++
	}

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	sorted = make([]string, 0, len(order))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		sorted = append(sorted, order[n])
		for _, m := range outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return sorted, len(sorted) == len(order)
}

// findCycle returns one cycle as a closed path of node IDs, or nil.
func findCycle(order []string, edges []Edge) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source.NodeID] = append(adj[e.Source.NodeID], e.Destination.NodeID)
	}

	color := make(map[string]int, len(order))
	parent := make(map[string]string, len(order))
	var cycle []string

	var dfs func(u string) bool
	dfs = func(u string) bool {
		color[u] = gray
		for _, v := range adj[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v: walk parents from u back to v.
				path := []string{v}
				for cur := u; cur != v; cur = parent[cur] {
					path = append(path, cur)
				}
				path = append(path, v)
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				cycle = path
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, id := range order {
		if color[id] == white && dfs(id) {
			break
		}
	}
	return cycle
}
