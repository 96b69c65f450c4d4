package workflow

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/gia/internal/model"
)

//go:embed default.yaml
var defaultFS embed.FS

const defaultPath = "default.yaml"

// DefinitionYAMLRepository loads workflow definitions from YAML files.
type DefinitionYAMLRepository struct {
	fs fs.FS
}

// NewDefinitionYAMLRepository creates a new YAML workflow definition repository.
func NewDefinitionYAMLRepository(filesystem fs.FS) *DefinitionYAMLRepository {
	return &DefinitionYAMLRepository{fs: filesystem}
}

// GetDefinition loads a workflow definition from a YAML file and returns the validated
// workflow nodes, all of them idle.
func (r *DefinitionYAMLRepository) GetDefinition(ctx context.Context, path string) ([]model.WorkflowNode, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow: %w", err)
	}

	return def.toModel(), nil
}

// DefaultNodes returns the built-in five stage workflow.
func DefaultNodes(ctx context.Context) ([]model.WorkflowNode, error) {
	return NewDefinitionYAMLRepository(defaultFS).GetDefinition(ctx, defaultPath)
}

// Definition represents the YAML structure of a workflow.
type Definition struct {
	Desc  string           `yaml:"desc"`
	Nodes []NodeDefinition `yaml:"nodes"`
}

// NodeDefinition represents the YAML structure of a workflow stage.
type NodeDefinition struct {
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	DependsOn   []string `yaml:"depends_on"`
	Output      string   `yaml:"output"`
}

func (d Definition) validate() error {
	if len(d.Nodes) == 0 {
		return fmt.Errorf("at least one node is required: %w", model.ErrNotValid)
	}

	seen := map[string]bool{}
	for i, n := range d.Nodes {
		if err := model.StepType(n.Name).Validate(); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}

		if n.Title == "" {
			return fmt.Errorf("node %q: title is required: %w", n.Name, model.ErrNotValid)
		}

		if seen[n.Name] {
			return fmt.Errorf("node %q: duplicated: %w", n.Name, model.ErrNotValid)
		}

		// Stages advance in declaration order, so a dependency must be declared before.
		for _, dep := range n.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("node %q: dependency %q must be declared before: %w", n.Name, dep, model.ErrNotValid)
			}
		}

		seen[n.Name] = true
	}

	return nil
}

func (d Definition) toModel() []model.WorkflowNode {
	nodes := make([]model.WorkflowNode, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		deps := []string{}
		deps = append(deps, n.DependsOn...)

		nodes = append(nodes, model.WorkflowNode{
			ID:           model.StepType(n.Name),
			Name:         n.Title,
			Description:  n.Description,
			Status:       model.NodeStatusIdle,
			Dependencies: deps,
			Output:       n.Output,
		})
	}

	return nodes
}
