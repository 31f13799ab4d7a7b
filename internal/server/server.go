package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"SwingScore/internal/analysis"
	"SwingScore/internal/metrics"
	"SwingScore/internal/profile"
	"SwingScore/internal/recorder"
)

// Analyzer scores one instrument.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

// Server exposes scores, charts and metrics over HTTP.
type Server struct {
	Analyzer Analyzer
	Profiles *profile.Registry
	History  recorder.History // optional
	Metrics  *metrics.Metrics // optional
	engine   *gin.Engine
}

// New creates a Server and its routes.
func New(a Analyzer, profiles *profile.Registry, history recorder.History, m *metrics.Metrics) *Server {
	s := &Server{Analyzer: a, Profiles: profiles, History: history, Metrics: m}
	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.healthz)
	api := s.engine.Group("/api")
	{
		api.GET("/profiles", s.listProfiles)
		api.GET("/scores/:symbol", s.scores)
		api.GET("/runs/:symbol", s.runs)
	}
	s.engine.GET("/chart/:symbol", s.chart)
	if s.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] http server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("[INFO] http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[INFO] %s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
