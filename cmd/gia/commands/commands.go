package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/printer"
	"github.com/slok/gia/internal/storage"
	"github.com/slok/gia/internal/storage/memory"
	"github.com/slok/gia/internal/storage/sqlite"
	"github.com/slok/gia/internal/workflow"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// StorageMemory stores the tasks in a map.
	StorageMemory = "memory"
	// StorageSQLite stores the tasks in an in-memory SQLite database.
	StorageSQLite = "sqlite"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	WorkflowFile string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger and output color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("workflow-file", "Path to a YAML workflow definition, the built-in workflow is used if the default file is missing.").Default(DefaultWorkflowFile()).StringVar(&c.WorkflowFile)

	return c
}

// DefaultWorkflowFile is the workflow definition path used when none is set.
func DefaultWorkflowFile() string {
	return filepath.Join(homedir.HomeDir(), ".gia", "workflow.yaml")
}

// LoadWorkflowNodes loads the workflow stages from the workflow file. The built-in
// workflow is used when no file is set or the default file doesn't exist.
func (r RootCommand) LoadWorkflowNodes(ctx context.Context) ([]model.WorkflowNode, error) {
	path := r.WorkflowFile
	if path == "" {
		return workflow.DefaultNodes(ctx)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && path == DefaultWorkflowFile() {
		if r.Logger != nil {
			r.Logger.Debugf("Workflow file %s missing, using built-in workflow", path)
		}
		return workflow.DefaultNodes(ctx)
	}

	repo := workflow.NewDefinitionYAMLRepository(os.DirFS(filepath.Dir(path)))
	nodes, err := repo.GetDefinition(ctx, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("could not load workflow %s: %w", path, err)
	}

	return nodes, nil
}

func newPrinter(format string, w io.Writer) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(w)
	}
	return printer.NewTablePrinter(w)
}

// newRepository returns the task repository for the storage kind and its close function.
func newRepository(ctx context.Context, kind string, logger log.Logger) (storage.Repository, func() error, error) {
	switch kind {
	case StorageMemory, "":
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create memory repository: %w", err)
		}
		return repo, func() error { return nil }, nil
	case StorageSQLite:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create sqlite repository: %w", err)
		}
		return repo, repo.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage %q", kind)
}
