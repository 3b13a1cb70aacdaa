package canvasgraph

import "fmt"

// EdgeConnection addresses one port of one node.
type EdgeConnection struct {
	NodeID string `json:"node_id"`
	Field  string `json:"field"`
}

// String returns "node.field".
func (c EdgeConnection) String() string {
	return fmt.Sprintf("%s.%s", c.NodeID, c.Field)
}

// Edge is a directed data dependency from an output port to an input port.
type Edge struct {
	Source      EdgeConnection `json:"source"`
	Destination EdgeConnection `json:"destination"`
}

// At is shorthand for building an EdgeConnection.
func At(nodeID, field string) EdgeConnection {
	return EdgeConnection{NodeID: nodeID, Field: field}
}
