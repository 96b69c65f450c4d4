package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/storage/sqlite/migrations"
)

// memoryDSN is an in-memory database, tasks don't outlive the process.
const memoryDSN = "file::memory:?_pragma=foreign_keys(1)"

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	// Every connection to an in-memory database is a different database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite in-memory repository initialized")

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // Rollback is safe to call after Commit

	query := `
		INSERT INTO tasks (id, description, status, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		t.ID,
		t.Description,
		t.Status,
		t.Result,
		t.CreatedAt.UnixNano(),
		t.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tasks.") {
			return fmt.Errorf("task already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task: %w", err)
	}

	if err := insertSteps(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	query := `
		SELECT id, description, status, result, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	steps, err := r.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Steps = steps[id]

	return &t, nil
}

// ListTasks returns all tasks, newest first.
func (r *Repository) ListTasks(ctx context.Context) ([]model.Task, error) {
	query := `
		SELECT id, description, status, result, created_at, updated_at
		FROM tasks
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	// Free the connection before querying the steps.
	rows.Close()

	steps, err := r.listSteps(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Steps = steps[tasks[i].ID]
	}

	return tasks, nil
}

// UpdateTask updates an existing task and replaces its steps.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE tasks
		SET
			description = ?,
			status = ?,
			result = ?,
			created_at = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		t.Description,
		t.Status,
		t.Result,
		t.CreatedAt.UnixNano(),
		t.UpdatedAt.UnixNano(),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_steps WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("could not delete task steps: %w", err)
	}

	if err := insertSteps(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Updated task in repository: %s", t.ID)
	return nil
}

// listSteps returns the steps indexed by task, all the tasks steps if taskID is empty.
func (r *Repository) listSteps(ctx context.Context, taskID string) (map[string][]model.TaskStep, error) {
	query := `
		SELECT task_id, id, name, type, status, output
		FROM task_steps
		WHERE (? = '' OR task_id = ?)
		ORDER BY task_id, sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not query task steps: %w", err)
	}
	defer rows.Close()

	steps := map[string][]model.TaskStep{}
	for rows.Next() {
		var tID string
		var s model.TaskStep
		if err := rows.Scan(&tID, &s.ID, &s.Name, &s.Type, &s.Status, &s.Output); err != nil {
			return nil, fmt.Errorf("could not scan step row: %w", err)
		}
		steps[tID] = append(steps[tID], s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating step rows: %w", err)
	}

	return steps, nil
}

func insertSteps(ctx context.Context, tx *sql.Tx, t model.Task) error {
	if len(t.Steps) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO task_steps (id, task_id, sequence, name, type, status, output)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, s := range t.Steps {
		_, err := stmt.ExecContext(ctx, s.ID, t.ID, i+1, s.Name, s.Type, s.Status, s.Output)
		if err != nil {
			return fmt.Errorf("could not insert task step: %w", err)
		}
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var t model.Task
	var createdAt, updatedAt int64

	err := s.Scan(
		&t.ID,
		&t.Description,
		&t.Status,
		&t.Result,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	t.CreatedAt = time.Unix(0, createdAt).UTC()
	t.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return t, nil
}
