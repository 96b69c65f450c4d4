package submit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/simulator"
	"github.com/slok/gia/internal/storage"
)

// Board is the workflow strip a submitted task takes.
type Board interface {
	Snapshot() model.Workflow
	Begin(taskID string) error
	Release()
}

// Runner starts the simulated processing of a task.
type Runner interface {
	Start(task model.Task)
}

// ServiceConfig is the configuration for the submit service.
type ServiceConfig struct {
	Board      Board
	Runner     Runner
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Board == nil {
		return fmt.Errorf("board is required")
	}
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Submit"})
	return nil
}

// Service handles task submission.
type Service struct {
	board  Board
	runner Runner
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new submit service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		board:  cfg.Board,
		runner: cfg.Runner,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the submit request parameters.
type Request struct {
	Description string
}

// Run creates a task for the description and starts processing it. Blank descriptions
// are rejected with model.ErrNotValid, and while a task is processing new ones are
// rejected with model.ErrBusy.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	// 1. Validate input.
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, fmt.Errorf("description is required: %w", model.ErrNotValid)
	}

	// 2. Take the board, only one task is processed at a time.
	taskID := ulid.Make().String()
	if err := s.board.Begin(taskID); err != nil {
		return nil, fmt.Errorf("could not take the workflow: %w", err)
	}

	// 3. Save the task.
	now := time.Now().UTC()
	task := model.Task{
		ID:          taskID,
		Description: description,
		Status:      model.TaskStatusProcessing,
		Steps: simulator.NewSteps(s.board.Snapshot().Nodes, func() string {
			return ulid.Make().String()
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		s.board.Release()
		return nil, fmt.Errorf("could not save task: %w", err)
	}

	// 4. Start the simulation.
	s.runner.Start(task)
	s.logger.Infof("Submitted task %s", task.ID)

	return &task, nil
}
