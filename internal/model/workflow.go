package model

import (
	"fmt"
)

// NodeStatus represents the visual state of a workflow stage.
type NodeStatus string

const (
	NodeStatusIdle      NodeStatus = "idle"
	NodeStatusActive    NodeStatus = "active"
	NodeStatusCompleted NodeStatus = "completed"
	// NodeStatusError is part of the status set but the simulated workflow never sets it.
	NodeStatusError NodeStatus = "error"
)

// Validate checks the status is one of the known ones.
func (s NodeStatus) Validate() error {
	switch s {
	case NodeStatusIdle, NodeStatusActive, NodeStatusCompleted, NodeStatusError:
		return nil
	}
	return fmt.Errorf("unknown node status %q: %w", s, ErrNotValid)
}

// WorkflowNode is a stage of the workflow strip.
type WorkflowNode struct {
	ID          StepType
	Name        string
	Description string
	Status      NodeStatus
	// Dependencies are declared for display, progression ignores them.
	Dependencies []string
	// Output is the canned output the stage reports once completed.
	Output string
}

// Workflow is a snapshot of the workflow strip.
type Workflow struct {
	Nodes      []WorkflowNode
	Processing bool
	// TaskID is the task being processed, if any.
	TaskID string
}

// Copy returns a deep copy of the workflow.
func (w Workflow) Copy() Workflow {
	c := w
	c.Nodes = CopyNodes(w.Nodes)
	return c
}

// CopyNodes returns a deep copy of the nodes.
func CopyNodes(nodes []WorkflowNode) []WorkflowNode {
	if nodes == nil {
		return nil
	}

	c := make([]WorkflowNode, len(nodes))
	for i, n := range nodes {
		c[i] = n
		if n.Dependencies != nil {
			c[i].Dependencies = append([]string{}, n.Dependencies...)
		}
	}
	return c
}

// Completed returns true when all the nodes are completed.
func (w Workflow) Completed() bool {
	if len(w.Nodes) == 0 {
		return false
	}
	for _, n := range w.Nodes {
		if n.Status != NodeStatusCompleted {
			return false
		}
	}
	return true
}
