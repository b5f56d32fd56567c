// Package graph implements a small state-graph workflow engine: named nodes
// connected by static and conditional edges, executed step by step over a
// shared state value. It supports dynamic routing through Commands, retry
// policies, human-in-the-loop interrupts and thread-scoped checkpointing.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")
)

// Edge represents a static edge between two named nodes.
type Edge struct {
	From string
	To   string
}

// NodeInterrupt is returned when a node requests an interrupt
// (e.g. waiting for human input).
type NodeInterrupt struct {
	// Node is the name of the node that triggered the interrupt.
	Node string
	// Value is the data/query provided by the interrupt.
	Value any
}

func (e *NodeInterrupt) Error() string {
	return fmt.Sprintf("interrupt at node %s: %v", e.Node, e.Value)
}

// GraphInterrupt is returned by Invoke when execution is paused, either by
// InterruptBefore/InterruptAfter configuration or by a dynamic interrupt.
type GraphInterrupt struct {
	// Node that caused the interruption.
	Node string
	// State at the time of interruption.
	State any
	// NextNodes that would have been executed if not interrupted.
	NextNodes []string
	// InterruptValue is the value provided by the dynamic interrupt (if any).
	InterruptValue any
}

func (e *GraphInterrupt) Error() string {
	if e.InterruptValue != nil {
		return fmt.Sprintf("graph interrupted at node %s with value: %v", e.Node, e.InterruptValue)
	}
	return fmt.Sprintf("graph interrupted at node %s", e.Node)
}

// Interrupt pauses execution and waits for input.
// If resuming, it returns the value provided in the resume config.
func Interrupt(ctx context.Context, value any) (any, error) {
	if resumeVal := GetResumeValue(ctx); resumeVal != nil {
		return resumeVal, nil
	}
	return nil, &NodeInterrupt{Value: value}
}

type resumeValueKey struct{}

// WithResumeValue adds a resume value to the context.
// This value will be returned by Interrupt() when re-executing a node.
func WithResumeValue(ctx context.Context, value any) context.Context {
	return context.WithValue(ctx, resumeValueKey{}, value)
}

// GetResumeValue retrieves the resume value from the context.
func GetResumeValue(ctx context.Context) any {
	return ctx.Value(resumeValueKey{})
}
