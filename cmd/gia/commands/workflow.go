package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/gia/internal/model"
)

type WorkflowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewWorkflowCommand returns the workflow command.
func NewWorkflowCommand(rootCmd *RootCommand, app *kingpin.Application) *WorkflowCommand {
	c := &WorkflowCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("workflow", "Show the workflow stages.")
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c WorkflowCommand) Name() string { return c.Cmd.FullCommand() }

func (c WorkflowCommand) Run(ctx context.Context) error {
	nodes, err := c.rootCmd.LoadWorkflowNodes(ctx)
	if err != nil {
		return err
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintWorkflow(model.Workflow{Nodes: nodes}); err != nil {
		return fmt.Errorf("could not print workflow: %w", err)
	}

	return nil
}
