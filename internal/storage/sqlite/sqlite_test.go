package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/storage/sqlite"
)

func taskFixture(id string, createdAt time.Time) model.Task {
	return model.Task{
		ID:          id,
		Description: "write a crawler for " + id,
		Status:      model.TaskStatusProcessing,
		Steps: []model.TaskStep{
			{ID: id + "-s1", Name: "Understand Task", Type: model.StepTypeUnderstandTask, Status: model.TaskStatusProcessing},
			{ID: id + "-s2", Name: "Gather Info", Type: model.StepTypeGatherInformation, Status: model.TaskStatusPending},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{Logger: log.Noop})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryCRUD(t *testing.T) {
	t0 := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error
		expErr  error
	}{
		"Creating a task should store it with its steps": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				exp := taskFixture("t1", t0)
				require.NoError(t, repo.CreateTask(ctx, exp))

				got, err := repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, exp, *got)
				return nil
			},
		},

		"Creating a duplicated task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1", t0)))
				return repo.CreateTask(ctx, taskFixture("t1", t0))
			},
			expErr: model.ErrAlreadyExists,
		},

		"Creating an invalid task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				tsk := taskFixture("t1", t0)
				tsk.Status = "unknown"
				return repo.CreateTask(ctx, tsk)
			},
			expErr: model.ErrNotValid,
		},

		"Getting a missing task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				_, err := repo.GetTask(ctx, "missing")
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Listing should return the newest task first": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1", t0)))
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t2", t0.Add(time.Second))))
				// Same creation time, insertion order decides.
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t3", t0.Add(time.Second))))

				tasks, err := repo.ListTasks(ctx)
				require.NoError(t, err)
				require.Len(t, tasks, 3)
				assert.Equal(t, "t3", tasks[0].ID)
				assert.Equal(t, "t2", tasks[1].ID)
				assert.Equal(t, "t1", tasks[2].ID)
				for _, tsk := range tasks {
					assert.Len(t, tsk.Steps, 2)
				}
				return nil
			},
		},

		"Updating a task should replace its state and steps": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1", t0)))

				exp := taskFixture("t1", t0)
				exp.Status = model.TaskStatusCompleted
				exp.Result = "all done"
				exp.UpdatedAt = t0.Add(9 * time.Second)
				exp.Steps[0].Status = model.TaskStatusCompleted
				exp.Steps[0].Output = "Task analyzed and decomposed into steps"
				exp.Steps[1].Status = model.TaskStatusCompleted
				require.NoError(t, repo.UpdateTask(ctx, exp))

				got, err := repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, exp, *got)
				return nil
			},
		},

		"Updating a missing task should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				return repo.UpdateTask(ctx, taskFixture("t1", t0))
			},
			expErr: model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)

			err := test.actions(context.Background(), t, repo)
			if test.expErr != nil {
				assert.True(t, errors.Is(err, test.expErr), "got: %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepositoriesDontShareState(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	repo1 := newRepo(t)
	repo2 := newRepo(t)

	require.NoError(repo1.CreateTask(ctx, taskFixture("t1", time.Now().UTC())))

	tasks, err := repo2.ListTasks(ctx)
	require.NoError(err)
	require.Empty(tasks)
}
