package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"gridworth/domain/core"
	"gridworth/domain/stats"
	"gridworth/internal"
	apperrors "gridworth/internal/errors"
	"gridworth/ports"
)

// Runner starts one analysis run. The server never runs two at once.
type Runner interface {
	Run(ctx context.Context) (*stats.RunSummary, error)
}

// Server exposes analysis runs over HTTP.
type Server struct {
	router *gin.Engine
	runner Runner
	runs   ports.RunRepository // nil when no database is configured
	log    *internal.Logger

	mu      sync.Mutex
	state   *progressState
	lastRun *stats.RunSummary
	running bool
}

// progressState is the live view of the in-flight run, fed by the
// orchestrator's observer checkpoints.
type progressState struct {
	mu       sync.Mutex
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

func (p *progressState) OnStatus(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = message
}

func (p *progressState) OnProgress(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Progress = percent
}

func (p *progressState) snapshot() (string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Status, p.Progress
}

// NewServer creates the API server. The run repository may be nil, in which
// case only the live run is visible.
func NewServer(runner Runner, runs ports.RunRepository, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router: gin.Default(),
		runner: runner,
		runs:   runs,
		log:    logger,
		state:  &progressState{Status: "idle"},
	}
	s.registerRoutes()
	return s
}

// Observer returns the observer the orchestrator should report to so the
// /api/analysis/status endpoint reflects live progress.
func (s *Server) Observer() ports.Observer {
	return s.state
}

// Run starts the HTTP server on addr; blocks until the server stops.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the underlying router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/analysis", s.handleStartAnalysis)
	api.GET("/analysis/status", s.handleAnalysisStatus)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/report", s.handleRunReport)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStartAnalysis(c *gin.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "analysis already running"})
		return
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		run, err := s.runner.Run(context.Background())
		if err != nil {
			s.log.Error("analysis run failed: %v", err)
		}
		s.mu.Lock()
		s.lastRun = run
		s.mu.Unlock()
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) handleAnalysisStatus(c *gin.Context) {
	status, progress := s.state.snapshot()
	s.mu.Lock()
	running := s.running
	last := s.lastRun
	s.mu.Unlock()

	resp := gin.H{
		"running":  running,
		"status":   status,
		"progress": progress,
	}
	if last != nil {
		resp["last_run_id"] = last.ID
		resp["last_run_state"] = last.State
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		s.mu.Lock()
		last := s.lastRun
		s.mu.Unlock()
		runs := []*stats.RunSummary{}
		if last != nil {
			runs = append(runs, last)
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
		return
	}

	runs, err := s.runs.ListRuns(c.Request.Context(), 50)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.findRun(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleRunReport(c *gin.Context) {
	run, err := s.findRun(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", RenderReportHTML(run))
}

func (s *Server) findRun(c *gin.Context) (*stats.RunSummary, error) {
	id := core.RunID(c.Param("id"))

	s.mu.Lock()
	last := s.lastRun
	s.mu.Unlock()
	if last != nil && last.ID == id {
		return last, nil
	}
	if s.runs == nil {
		return nil, apperrors.DataMissing("run not found")
	}
	return s.runs.GetRun(c.Request.Context(), id)
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.CodeDataMissing:
		status = http.StatusNotFound
	case apperrors.CodeConfigInvalid:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.GetCode(err)})
}
