package canvasgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration checks.
var (
	// ErrInvalidConfig indicates a configuration field is missing or out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingModel indicates no main model was selected.
	ErrMissingModel = errors.New("no model selected")
)

// Sentinel errors for graph construction and validation.
// Every *GraphValidationError unwraps to exactly one of these.
var (
	// ErrInvalidNodeID indicates an empty node ID or one containing whitespace.
	ErrInvalidNodeID = errors.New("invalid node ID")

	// ErrDuplicateNode indicates a node ID was added twice.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrNodeIDMismatch indicates a node's own ID differs from its map key.
	ErrNodeIDMismatch = errors.New("node ID does not match its key")

	// ErrUnknownNodeType indicates a node type missing from the catalog.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrNodeNotFound indicates an edge references a node that is not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnknownPort indicates an edge references a port the node type does not expose.
	ErrUnknownPort = errors.New("unknown port")

	// ErrPortKindMismatch indicates an edge connects ports carrying different kinds of value.
	ErrPortKindMismatch = errors.New("port kind mismatch")

	// ErrPortAlreadyWritten indicates a second edge into a single-writer input port.
	ErrPortAlreadyWritten = errors.New("input port already has a writer")

	// ErrNoWriter indicates a redirect of an input port nothing writes to.
	ErrNoWriter = errors.New("input port has no writer")

	// ErrCycle indicates the edge set is not acyclic.
	ErrCycle = errors.New("cycle detected")

	// ErrMissingAnchor indicates a mandatory anchor node is absent.
	ErrMissingAnchor = errors.New("missing anchor node")

	// ErrUnexpectedNode indicates an optional node whose presence disagrees with the configuration.
	ErrUnexpectedNode = errors.New("optional node presence does not match configuration")
)

// ConfigurationError reports a required input that is missing or unusable.
// It is returned before any node is created.
type ConfigurationError struct {
	// Field is the configuration key at fault (e.g. "model").
	Field string
	// Reason describes what is wrong with it.
	Reason string
	// Err is ErrMissingModel or ErrInvalidConfig.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying sentinel for errors.Is support.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func invalidConfig(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidConfig}
}

// GraphValidationError reports a violated structural invariant, either while
// the graph is being built or when the finished graph is validated.
type GraphValidationError struct {
	// Rule is the sentinel naming the violated invariant.
	Rule error
	// NodeID is the node involved, if any.
	NodeID string
	// Field is the port involved, if any.
	Field string
	// Detail is a human-readable description.
	Detail string
}

// Error implements the error interface.
func (e *GraphValidationError) Error() string {
	switch {
	case e.NodeID != "" && e.Field != "":
		return fmt.Sprintf("%v at %s.%s: %s", e.Rule, e.NodeID, e.Field, e.Detail)
	case e.NodeID != "":
		return fmt.Sprintf("%v at %s: %s", e.Rule, e.NodeID, e.Detail)
	default:
		return fmt.Sprintf("%v: %s", e.Rule, e.Detail)
	}
}

// Unwrap returns the rule sentinel for errors.Is support.
func (e *GraphValidationError) Unwrap() error {
	return e.Rule
}

func violation(rule error, nodeID, field, format string, args ...any) *GraphValidationError {
	return &GraphValidationError{
		Rule:   rule,
		NodeID: nodeID,
		Field:  field,
		Detail: fmt.Sprintf(format, args...),
	}
}
