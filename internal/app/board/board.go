package board

import (
	"context"
	"fmt"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
)

// Board is the source of the workflow strip state.
type Board interface {
	Snapshot() model.Workflow
}

// ServiceConfig is the configuration for the board service.
type ServiceConfig struct {
	Board  Board
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Board == nil {
		return fmt.Errorf("board is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Board"})
	return nil
}

// Service returns the current state of the workflow.
type Service struct {
	board  Board
	logger log.Logger
}

// NewService creates a new board service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		board:  cfg.Board,
		logger: cfg.Logger,
	}, nil
}

// Run returns a snapshot of the workflow stages and if a task is being processed.
func (s *Service) Run(ctx context.Context) (model.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return model.Workflow{}, err
	}

	return s.board.Snapshot(), nil
}
