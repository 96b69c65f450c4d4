package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	"github.com/oklog/run"

	"github.com/slok/gia/internal/app/board"
	"github.com/slok/gia/internal/app/list"
	"github.com/slok/gia/internal/app/status"
	"github.com/slok/gia/internal/app/submit"
	"github.com/slok/gia/internal/console"
	"github.com/slok/gia/internal/simulator"
	"github.com/slok/gia/internal/telemetry"
	"github.com/slok/gia/internal/workflow"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr string
	stageDelay time.Duration
	finalDelay time.Duration
	storage    string
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Run the web console and the JSON API.")
	c.Cmd.Flag("listen", "Address the console listens on.").Default(":8080").StringVar(&c.listenAddr)
	c.Cmd.Flag("stage-delay", "Time between workflow stage activations.").Default(simulator.DefaultStageDelay.String()).DurationVar(&c.stageDelay)
	c.Cmd.Flag("final-delay", "Time between the last stage activation and the task completion.").Default(simulator.DefaultFinalDelay.String()).DurationVar(&c.finalDelay)
	c.Cmd.Flag("storage", "Task storage, tasks are lost on exit with both.").Default(StorageMemory).EnumVar(&c.storage, StorageMemory, StorageSQLite)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	if !c.rootCmd.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Workflow.
	nodes, err := c.rootCmd.LoadWorkflowNodes(ctx)
	if err != nil {
		return err
	}

	b, err := workflow.NewBoard(workflow.BoardConfig{Nodes: nodes, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create workflow board: %w", err)
	}

	// Storage.
	repo, closeRepo, err := newRepository(ctx, c.storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			logger.Errorf("could not close repository: %s", err)
		}
	}()

	// Simulation.
	tp := telemetry.NewTracerProvider(logger)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	runner, err := simulator.NewRunner(simulator.RunnerConfig{
		Board:      b,
		Repository: repo,
		StageDelay: c.stageDelay,
		FinalDelay: c.finalDelay,
		Tracer:     tp.Tracer(simulator.TracerName),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create runner: %w", err)
	}
	defer runner.Stop()

	// Services.
	submitSvc, err := submit.NewService(submit.ServiceConfig{Board: b, Runner: runner, Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create submit service: %w", err)
	}
	listSvc, err := list.NewService(list.ServiceConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create list service: %w", err)
	}
	statusSvc, err := status.NewService(status.ServiceConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create status service: %w", err)
	}
	boardSvc, err := board.NewService(board.ServiceConfig{Board: b, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create board service: %w", err)
	}

	srv, err := console.NewServer(console.ServerConfig{
		Submit: submitSvc,
		List:   listSvc,
		Status: statusSvc,
		Board:  boardSvc,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create console: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.listenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group

	// HTTP console.
	{
		g.Add(
			func() error {
				logger.Infof("Console listening on %s", c.listenAddr)
				err := httpServer.ListenAndServe()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			},
			func(_ error) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(ctx); err != nil {
					logger.Errorf("could not shutdown console: %s", err)
				}
			},
		)
	}

	// Context cancellation.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				<-ctx.Done()
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}
