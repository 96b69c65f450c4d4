package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/storage/memory"
)

func taskFixture(id string) model.Task {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	return model.Task{
		ID:          id,
		Description: "summarize the news of " + id,
		Status:      model.TaskStatusProcessing,
		Steps: []model.TaskStep{
			{ID: id + "-s1", Name: "Understand Task", Type: model.StepTypeUnderstandTask, Status: model.TaskStatusPending},
			{ID: id + "-s2", Name: "Gather Info", Type: model.StepTypeGatherInformation, Status: model.TaskStatusPending},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepositoryCRUD(t *testing.T) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository) error
		expErr  error
	}{
		"Creating a task should work": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				err := repo.CreateTask(ctx, taskFixture("t1"))
				require.NoError(t, err)

				got, err := repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, taskFixture("t1"), *got)
				return nil
			},
		},

		"Creating a duplicated task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1")))
				return repo.CreateTask(ctx, taskFixture("t1"))
			},
			expErr: model.ErrAlreadyExists,
		},

		"Creating an invalid task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				tsk := taskFixture("t1")
				tsk.Description = " "
				return repo.CreateTask(ctx, tsk)
			},
			expErr: model.ErrNotValid,
		},

		"Getting a missing task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				_, err := repo.GetTask(ctx, "missing")
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Listing should return the newest task first": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1")))
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t2")))
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t3")))

				tasks, err := repo.ListTasks(ctx)
				require.NoError(t, err)
				require.Len(t, tasks, 3)
				assert.Equal(t, "t3", tasks[0].ID)
				assert.Equal(t, "t2", tasks[1].ID)
				assert.Equal(t, "t1", tasks[2].ID)
				return nil
			},
		},

		"Listing an empty repository should return no tasks": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				tasks, err := repo.ListTasks(ctx)
				require.NoError(t, err)
				assert.Empty(t, tasks)
				return nil
			},
		},

		"Updating a task should work": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1")))

				tsk := taskFixture("t1")
				tsk.Status = model.TaskStatusCompleted
				tsk.Steps[0].Status = model.TaskStatusCompleted
				tsk.Steps[0].Output = "analyzed"
				require.NoError(t, repo.UpdateTask(ctx, tsk))

				got, err := repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, tsk, *got)
				return nil
			},
		},

		"Updating a missing task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				return repo.UpdateTask(ctx, taskFixture("t1"))
			},
			expErr: model.ErrNotFound,
		},

		"Mutating a returned task should not change the stored one": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1")))

				got, err := repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				got.Steps[0].Status = model.TaskStatusCompleted

				got, err = repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, model.TaskStatusPending, got.Steps[0].Status)
				return nil
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
			require.NoError(t, err)

			err = test.actions(context.Background(), t, repo)
			if test.expErr != nil {
				assert.True(t, errors.Is(err, test.expErr), "got: %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
