// Package server exposes health, metrics and last-run information over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/musicnews/internal/metrics"
	"github.com/deusflow/musicnews/internal/news"
)

// RunSummary is what /api/last-run reports.
type RunSummary struct {
	RunID             string                `json:"run_id"`
	StartedAt         time.Time             `json:"started_at"`
	DurationMS        int64                 `json:"duration_ms"`
	Received          int                   `json:"received"`
	Skipped           int                   `json:"skipped"`
	DuplicatesRemoved int                   `json:"duplicates_removed"`
	MergeRules        map[string]int        `json:"merge_rules"`
	Ranked            int                   `json:"ranked"`
	Categories        map[news.Category]int `json:"categories"`
}

// StatsFunc contributes an extra section to /metrics.
type StatsFunc func() map[string]interface{}

// Server serves the monitoring endpoints.
type Server struct {
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	lastRun *RunSummary
	extra   map[string]StatsFunc

	engine *gin.Engine
}

// New registers /health, /metrics and /api/last-run on a gin router.
func New(m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		metrics: m,
		logger:  logger.With("component", "server"),
		extra:   make(map[string]StatsFunc),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/api/last-run", s.handleLastRun)
	s.engine = r
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// AddStats registers an extra /metrics section, e.g. rate limiter usage.
func (s *Server) AddStats(name string, fn StatsFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra[name] = fn
}

// RecordRun replaces the last-run summary.
func (s *Server) RecordRun(run RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = &run
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("monitoring server listening", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.metrics.Healthy() {
		stats := s.metrics.GetStats()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "unhealthy",
			"last_error": stats["last_error"],
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMetrics(c *gin.Context) {
	out := gin.H{"pipeline": s.metrics.GetStats()}

	s.mu.RLock()
	for name, fn := range s.extra {
		out[name] = fn()
	}
	s.mu.RUnlock()

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLastRun(c *gin.Context) {
	s.mu.RLock()
	run := s.lastRun
	s.mu.RUnlock()

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded yet"})
		return
	}
	c.JSON(http.StatusOK, run)
}
