package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/slok/gia/internal/app/submit"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/printer"
	"github.com/slok/gia/internal/simulator"
	"github.com/slok/gia/internal/storage"
	"github.com/slok/gia/internal/storage/memory"
	"github.com/slok/gia/internal/telemetry"
	"github.com/slok/gia/internal/workflow"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	description string
	stageDelay  time.Duration
	finalDelay  time.Duration
	format      string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Simulate a task in the terminal.")
	c.Cmd.Arg("description", "Task description.").Required().StringVar(&c.description)
	c.Cmd.Flag("stage-delay", "Time between workflow stage activations.").Default(simulator.DefaultStageDelay.String()).DurationVar(&c.stageDelay)
	c.Cmd.Flag("final-delay", "Time between the last stage activation and the task completion.").Default(simulator.DefaultFinalDelay.String()).DurationVar(&c.finalDelay)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	nodes, err := c.rootCmd.LoadWorkflowNodes(ctx)
	if err != nil {
		return err
	}

	repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	tp := telemetry.NewTracerProvider(logger)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	task, elapsed, err := c.simulate(ctx, nodes, repo, tp.Tracer(simulator.TracerName))
	if err != nil {
		return err
	}

	if c.format == formatTable {
		fmt.Fprintln(c.rootCmd.Stdout)
	}
	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintStatus(task); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	if c.format == formatTable {
		msg := fmt.Sprintf("\nTask %s completed after %s of simulated work.", task.ID, elapsed)
		if err := printer.NewTablePrinter(c.rootCmd.Stdout).PrintMessage(msg); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}
	}

	return nil
}

// foregroundRunner satisfies submit.Runner without starting anything, the run
// command drives the simulation itself so it can wait for its result.
type foregroundRunner struct{}

func (foregroundRunner) Start(model.Task) {}

// simulate submits the task and runs all the stages in the foreground, returning the
// completed task and the simulated duration.
func (c RunCommand) simulate(ctx context.Context, nodes []model.WorkflowNode, repo storage.Repository, tracer trace.Tracer) (model.Task, time.Duration, error) {
	logger := c.rootCmd.Logger

	b, err := workflow.NewBoard(workflow.BoardConfig{Nodes: nodes, Logger: logger})
	if err != nil {
		return model.Task{}, 0, fmt.Errorf("could not create workflow board: %w", err)
	}

	// The strip is rendered live only for humans.
	strip := printer.NewStripPrinter(c.rootCmd.Stdout, !c.rootCmd.NoColor)
	onUpdate := func(u simulator.Update) {
		if c.format != formatTable {
			return
		}
		if err := strip.PrintStrip(u.Workflow, u.Task); err != nil {
			logger.Warningf("could not print workflow: %s", err)
		}
	}

	runner, err := simulator.NewRunner(simulator.RunnerConfig{
		Board:      b,
		Repository: repo,
		StageDelay: c.stageDelay,
		FinalDelay: c.finalDelay,
		OnUpdate:   onUpdate,
		Tracer:     tracer,
		Logger:     logger,
	})
	if err != nil {
		return model.Task{}, 0, fmt.Errorf("could not create runner: %w", err)
	}

	submitSvc, err := submit.NewService(submit.ServiceConfig{Board: b, Runner: foregroundRunner{}, Repository: repo, Logger: logger})
	if err != nil {
		return model.Task{}, 0, fmt.Errorf("could not create submit service: %w", err)
	}

	task, err := submitSvc.Run(ctx, submit.Request{Description: c.description})
	if err != nil {
		return model.Task{}, 0, fmt.Errorf("could not submit task: %w", err)
	}

	completed, err := runner.Run(ctx, *task)
	if err != nil {
		return model.Task{}, 0, fmt.Errorf("could not simulate task: %w", err)
	}

	return completed, runner.Duration(len(nodes)), nil
}
