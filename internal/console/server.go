package console

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slok/gia/internal/app/list"
	"github.com/slok/gia/internal/app/status"
	"github.com/slok/gia/internal/app/submit"
	"github.com/slok/gia/internal/log"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/printer"
)

//go:embed templates/*.html
var templatesFS embed.FS

// SubmitService submits new tasks.
type SubmitService interface {
	Run(ctx context.Context, req submit.Request) (*model.Task, error)
}

// ListService lists the task history.
type ListService interface {
	Run(ctx context.Context, req list.Request) ([]model.Task, error)
}

// StatusService gets a single task.
type StatusService interface {
	Run(ctx context.Context, req status.Request) (*model.Task, error)
}

// BoardService gets the workflow strip state.
type BoardService interface {
	Run(ctx context.Context) (model.Workflow, error)
}

// ServerConfig is the configuration for the console server.
type ServerConfig struct {
	Submit SubmitService
	List   ListService
	Status StatusService
	Board  BoardService
	// RefreshSeconds is the page auto refresh interval while a task is processing.
	RefreshSeconds int
	Logger         log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.Submit == nil {
		return fmt.Errorf("submit service is required")
	}
	if c.List == nil {
		return fmt.Errorf("list service is required")
	}
	if c.Status == nil {
		return fmt.Errorf("status service is required")
	}
	if c.Board == nil {
		return fmt.Errorf("board service is required")
	}
	if c.RefreshSeconds <= 0 {
		c.RefreshSeconds = 1
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "console.Server"})
	return nil
}

// Server is the gia web console, it serves the HTML page and the JSON API.
type Server struct {
	submit  SubmitService
	list    ListService
	status  StatusService
	board   BoardService
	refresh int
	router  *gin.Engine
	logger  log.Logger
}

// NewServer creates a new console server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"taskIcon": printer.TaskIcon,
		"nodeIcon": printer.NodeIcon,
		"clock":    printer.FormatClock,
		"timeAgo":  printer.TimeAgo,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(cfg.Logger))
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		submit:  cfg.Submit,
		list:    cfg.List,
		status:  cfg.Status,
		board:   cfg.Board,
		refresh: cfg.RefreshSeconds,
		router:  router,
		logger:  cfg.Logger,
	}

	// Web routes
	router.GET("/", s.handleIndex)
	router.POST("/tasks", s.handleSubmit)
	router.GET("/healthz", s.handleHealth)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleAPIList)
		api.POST("/tasks", s.handleAPISubmit)
		api.GET("/tasks/:id", s.handleAPIStatus)
		api.GET("/workflow", s.handleAPIWorkflow)
	}

	return s, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
