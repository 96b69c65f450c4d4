package storage

import (
	"context"

	"github.com/slok/gia/internal/model"
)

// Repository is the interface for task storage.
//
//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository
type Repository interface {
	CreateTask(ctx context.Context, t model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	// ListTasks returns the tasks, the most recently created first.
	ListTasks(ctx context.Context) ([]model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
}
