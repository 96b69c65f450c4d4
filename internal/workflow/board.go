package workflow

import (
	"fmt"
	"sync"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
)

// BoardConfig is the configuration for the board.
type BoardConfig struct {
	Nodes  []model.WorkflowNode
	Logger log.Logger
}

func (c *BoardConfig) defaults() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("nodes are required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "workflow.Board"})
	return nil
}

// Board holds the state of the workflow strip. Only one task can be processed
// by the board at a time.
type Board struct {
	nodes      []model.WorkflowNode
	processing bool
	taskID     string
	mu         sync.RWMutex
	logger     log.Logger
}

// NewBoard creates a new board with all the nodes idle.
func NewBoard(cfg BoardConfig) (*Board, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	nodes := model.CopyNodes(cfg.Nodes)
	setStatuses(nodes, -1)

	return &Board{
		nodes:  nodes,
		logger: cfg.Logger,
	}, nil
}

// Snapshot returns a copy of the current workflow state.
func (b *Board) Snapshot() model.Workflow {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return model.Workflow{
		Nodes:      model.CopyNodes(b.nodes),
		Processing: b.processing,
		TaskID:     b.taskID,
	}
}

// Begin takes the board for a task and resets all the stages to idle.
func (b *Board) Begin(taskID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.processing {
		return fmt.Errorf("task %s is being processed: %w", b.taskID, model.ErrBusy)
	}

	b.processing = true
	b.taskID = taskID
	setStatuses(b.nodes, -1)
	b.logger.Debugf("Board taken by task %s", taskID)

	return nil
}

// Activate marks the stage at index as active, the previous ones as completed
// and the next ones as idle.
func (b *Board) Activate(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.nodes) {
		return fmt.Errorf("stage %d out of range: %w", index, model.ErrNotValid)
	}

	setStatuses(b.nodes, index)
	return nil
}

// Finish marks all the stages as completed and releases the board.
func (b *Board) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.nodes {
		b.nodes[i].Status = model.NodeStatusCompleted
	}
	b.release()
}

// Release frees the board without touching the stages.
func (b *Board) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release()
}

func (b *Board) release() {
	b.logger.Debugf("Board released by task %s", b.taskID)
	b.processing = false
	b.taskID = ""
}

// setStatuses sets the statuses relative to the active index, -1 means all idle.
func setStatuses(nodes []model.WorkflowNode, active int) {
	for i := range nodes {
		switch {
		case active < 0:
			nodes[i].Status = model.NodeStatusIdle
		case i < active:
			nodes[i].Status = model.NodeStatusCompleted
		case i == active:
			nodes[i].Status = model.NodeStatusActive
		default:
			nodes[i].Status = model.NodeStatusIdle
		}
	}
}
