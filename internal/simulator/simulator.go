package simulator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/storage"
)

const (
	// DefaultStageDelay is the time between stage activations.
	DefaultStageDelay = 2 * time.Second
	// DefaultFinalDelay is the time between the last stage activation and the completion.
	DefaultFinalDelay = 1 * time.Second

	// TracerName is the tracer used when none is set.
	TracerName = "github.com/slok/gia/internal/simulator"
)

// Board is the workflow strip the runner advances.
type Board interface {
	Snapshot() model.Workflow
	Activate(index int) error
	Finish()
	Release()
}

// Update is the state after a transition.
type Update struct {
	Task     model.Task
	Workflow model.Workflow
}

// RunnerConfig is the configuration for the runner.
type RunnerConfig struct {
	Board      Board
	Repository storage.Repository
	StageDelay time.Duration
	FinalDelay time.Duration
	// OnUpdate is called after every transition, optional.
	OnUpdate func(Update)
	Tracer   trace.Tracer
	Logger   log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Board == nil {
		return fmt.Errorf("board is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.StageDelay < 0 || c.FinalDelay < 0 {
		return fmt.Errorf("delays can't be negative")
	}
	if c.StageDelay == 0 {
		c.StageDelay = DefaultStageDelay
	}
	if c.FinalDelay == 0 {
		c.FinalDelay = DefaultFinalDelay
	}
	if c.OnUpdate == nil {
		c.OnUpdate = func(Update) {}
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(TracerName)
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "simulator.Runner"})
	return nil
}

// Runner moves a task through the workflow stages on fixed delays. Nothing is
// executed, the stages only change their visual state.
type Runner struct {
	board      Board
	repo       storage.Repository
	stageDelay time.Duration
	finalDelay time.Duration
	onUpdate   func(Update)
	tracer     trace.Tracer
	logger     log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a new runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		board:      cfg.Board,
		repo:       cfg.Repository,
		stageDelay: cfg.StageDelay,
		finalDelay: cfg.FinalDelay,
		onUpdate:   cfg.OnUpdate,
		tracer:     cfg.Tracer,
		logger:     cfg.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Duration returns how long a run of n stages takes.
func (r *Runner) Duration(stages int) time.Duration {
	if stages <= 0 {
		return 0
	}
	return time.Duration(stages-1)*r.stageDelay + r.finalDelay
}

// Start runs the task in the background. The board must be already taken for the task.
func (r *Runner) Start(task model.Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.Run(r.ctx, task); err != nil {
			r.logger.Warningf("Task %s simulation stopped: %s", task.ID, err)
		}
	}()
}

// Stop cancels the background runs and waits until all of them end.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Run advances the task through all the stages and returns the completed task.
// The board must be already taken for the task, it is released when the run ends.
func (r *Runner) Run(ctx context.Context, task model.Task) (_ model.Task, err error) {
	ctx, span := r.tracer.Start(ctx, "simulator.Run", trace.WithAttributes(
		attribute.String("gia.task.id", task.ID),
	))
	defer func() {
		if err != nil {
			// Leave the task as it was, only free the board.
			r.board.Release()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger := r.logger.WithValues(log.Kv{"task-id": task.ID})
	task = task.Copy()
	nodes := r.board.Snapshot().Nodes

	for i, node := range nodes {
		err := r.stage(ctx, &task, nodes, i)
		if err != nil {
			return task, fmt.Errorf("stage %q: %w", node.ID, err)
		}
		logger.Debugf("Stage %q completed", node.ID)
	}

	// Everything completed.
	for i := range task.Steps {
		task.Steps[i].Status = model.TaskStatusCompleted
		task.Steps[i].Output = stepOutput(nodes, i)
	}
	task.Status = model.TaskStatusCompleted
	task.Result = summary(nodes)
	task.UpdatedAt = time.Now().UTC()
	if err := r.repo.UpdateTask(ctx, task); err != nil {
		return task, fmt.Errorf("could not update task: %w", err)
	}
	r.board.Finish()
	r.notify(task)

	logger.Infof("Task completed after %d stages", len(nodes))

	return task, nil
}

// stage activates the stage at index and waits until its delay elapses.
func (r *Runner) stage(ctx context.Context, task *model.Task, nodes []model.WorkflowNode, index int) error {
	ctx, span := r.tracer.Start(ctx, string(nodes[index].ID), trace.WithAttributes(
		attribute.String("gia.stage.name", nodes[index].Name),
		attribute.Int("gia.stage.index", index),
	))
	defer span.End()

	if err := r.board.Activate(index); err != nil {
		return fmt.Errorf("could not activate stage: %w", err)
	}

	for i := range task.Steps {
		switch {
		case i < index:
			task.Steps[i].Status = model.TaskStatusCompleted
			task.Steps[i].Output = stepOutput(nodes, i)
		case i == index:
			task.Steps[i].Status = model.TaskStatusProcessing
		default:
			task.Steps[i].Status = model.TaskStatusPending
		}
	}
	task.UpdatedAt = time.Now().UTC()
	if err := r.repo.UpdateTask(ctx, *task); err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}
	r.notify(*task)

	delay := r.stageDelay
	if index == len(nodes)-1 {
		delay = r.finalDelay
	}

	if err := sleep(ctx, delay); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (r *Runner) notify(task model.Task) {
	r.onUpdate(Update{
		Task:     task.Copy(),
		Workflow: r.board.Snapshot(),
	})
}

// NewSteps returns the pending steps of a task for the workflow nodes.
func NewSteps(nodes []model.WorkflowNode, newID func() string) []model.TaskStep {
	steps := make([]model.TaskStep, 0, len(nodes))
	for _, n := range nodes {
		steps = append(steps, model.TaskStep{
			ID:     newID(),
			Name:   n.Name,
			Type:   n.ID,
			Status: model.TaskStatusPending,
		})
	}
	return steps
}

func stepOutput(nodes []model.WorkflowNode, i int) string {
	if i >= len(nodes) {
		return ""
	}
	return nodes[i].Output
}

func summary(nodes []model.WorkflowNode) string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return fmt.Sprintf("Completed %d stages: %s", len(nodes), strings.Join(names, " -> "))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
