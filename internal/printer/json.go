package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/gia/internal/model"
)

// JSONPrinter prints task information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// TaskOutput represents the full task output. It's the same shape the HTTP API returns.
type TaskOutput struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Steps       []StepOutput `json:"steps"`
	Result      string       `json:"result,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// StepOutput represents a task step output.
type StepOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
}

// WorkflowOutput represents the workflow output.
type WorkflowOutput struct {
	Processing bool         `json:"processing"`
	TaskID     string       `json:"task_id,omitempty"`
	Nodes      []NodeOutput `json:"nodes"`
}

// NodeOutput represents a workflow stage output.
type NodeOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Dependencies []string `json:"dependencies"`
}

// NewTaskOutput maps a task to its JSON representation.
func NewTaskOutput(t model.Task) TaskOutput {
	steps := make([]StepOutput, 0, len(t.Steps))
	for _, s := range t.Steps {
		steps = append(steps, StepOutput{
			ID:     s.ID,
			Name:   s.Name,
			Type:   string(s.Type),
			Status: string(s.Status),
			Output: s.Output,
		})
	}

	return TaskOutput{
		ID:          t.ID,
		Description: t.Description,
		Status:      string(t.Status),
		Steps:       steps,
		Result:      t.Result,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

// NewWorkflowOutput maps a workflow to its JSON representation.
func NewWorkflowOutput(w model.Workflow) WorkflowOutput {
	nodes := make([]NodeOutput, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		deps := n.Dependencies
		if deps == nil {
			deps = []string{}
		}
		nodes = append(nodes, NodeOutput{
			ID:           string(n.ID),
			Name:         n.Name,
			Description:  n.Description,
			Status:       string(n.Status),
			Dependencies: deps,
		})
	}

	return WorkflowOutput{
		Processing: w.Processing,
		TaskID:     w.TaskID,
		Nodes:      nodes,
	}
}

// PrintStatus prints the detailed task in JSON format.
func (j *JSONPrinter) PrintStatus(task model.Task) error {
	return j.encode(NewTaskOutput(task))
}

// PrintWorkflow prints the workflow in JSON format.
func (j *JSONPrinter) PrintWorkflow(w model.Workflow) error {
	return j.encode(NewWorkflowOutput(w))
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
