package console

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slok/gia/internal/app/list"
	"github.com/slok/gia/internal/app/status"
	"github.com/slok/gia/internal/app/submit"
	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/printer"
)

// Web handlers

func (s *Server) handleIndex(c *gin.Context) {
	ctx := c.Request.Context()

	wf, err := s.board.Run(ctx)
	if err != nil {
		s.htmlError(c, err)
		return
	}

	tasks, err := s.list.Run(ctx, list.Request{})
	if err != nil {
		s.htmlError(c, err)
		return
	}

	refresh := 0
	if wf.Processing {
		refresh = s.refresh
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":    "gia - Task Automation Assistant",
		"workflow": wf,
		"tasks":    tasks,
		"refresh":  refresh,
	})
}

func (s *Server) handleSubmit(c *gin.Context) {
	logger := s.logger.WithCtxValues(c.Request.Context())

	_, err := s.submit.Run(c.Request.Context(), submit.Request{Description: c.PostForm("description")})
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotValid), errors.Is(err, model.ErrBusy):
		// Same as the input being disabled, nothing happens.
		logger.Debugf("Submission ignored: %s", err)
	default:
		s.htmlError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// API handlers

type submitRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleAPIList(c *gin.Context) {
	req := list.Request{}
	if q := c.Query("status"); q != "" {
		st := model.TaskStatus(q)
		req.StatusFilter = &st
	}

	tasks, err := s.list.Run(c.Request.Context(), req)
	if err != nil {
		s.apiError(c, err)
		return
	}

	out := make([]printer.TaskOutput, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, printer.NewTaskOutput(t))
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAPISubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := s.submit.Run(c.Request.Context(), submit.Request{Description: req.Description})
	if err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusCreated, printer.NewTaskOutput(*task))
}

func (s *Server) handleAPIStatus(c *gin.Context) {
	task, err := s.status.Run(c.Request.Context(), status.Request{ID: c.Param("id")})
	if err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, printer.NewTaskOutput(*task))
}

func (s *Server) handleAPIWorkflow(c *gin.Context) {
	wf, err := s.board.Run(c.Request.Context())
	if err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, printer.NewWorkflowOutput(wf))
}

func (s *Server) apiError(c *gin.Context, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		s.logger.WithCtxValues(c.Request.Context()).Errorf("Request failed: %s", err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) htmlError(c *gin.Context, err error) {
	s.logger.WithCtxValues(c.Request.Context()).Errorf("Page failed: %s", err)
	c.String(statusCode(err), "could not render page: %s", err)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrNotValid):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, model.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
