package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the state of a task or one of its steps.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	// TaskStatusFailed is part of the status set but the simulated workflow never sets it.
	TaskStatusFailed TaskStatus = "failed"
)

// Validate checks the status is one of the known ones.
func (s TaskStatus) Validate() error {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return nil
	}
	return fmt.Errorf("unknown task status %q: %w", s, ErrNotValid)
}

// StepType identifies a workflow stage.
type StepType string

const (
	StepTypeUnderstandTask    StepType = "understand_task"
	StepTypeGatherInformation StepType = "gather_information"
	StepTypeGenerateCode      StepType = "generate_code"
	StepTypeExecuteCode       StepType = "execute_code"
	StepTypeSelfCorrect       StepType = "self_correct"
)

// Validate checks the step type is one of the known ones.
func (s StepType) Validate() error {
	switch s {
	case StepTypeUnderstandTask, StepTypeGatherInformation, StepTypeGenerateCode, StepTypeExecuteCode, StepTypeSelfCorrect:
		return nil
	}
	return fmt.Errorf("unknown step type %q: %w", s, ErrNotValid)
}

// Task is a user submitted description and its simulated lifecycle.
type Task struct {
	ID          string
	Description string
	Status      TaskStatus
	Steps       []TaskStep
	Result      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskStep is the per task view of a workflow stage.
type TaskStep struct {
	ID     string
	Name   string
	Type   StepType
	Status TaskStatus
	Output string
}

// Validate validates the task.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}

	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("description is required: %w", ErrNotValid)
	}

	if err := t.Status.Validate(); err != nil {
		return err
	}

	for i, s := range t.Steps {
		if err := s.Status.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := s.Type.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	return nil
}

// Copy returns a deep copy of the task.
func (t Task) Copy() Task {
	c := t
	if t.Steps != nil {
		c.Steps = make([]TaskStep, len(t.Steps))
		copy(c.Steps, t.Steps)
	}
	return c
}
