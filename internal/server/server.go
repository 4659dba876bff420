// Package server exposes one engine.Store over HTTP so a browser UI and an
// agent process can share it.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/coedit/internal/engine"
	"github.com/roach88/coedit/internal/metrics"
)

// ErrorResponse is the body of every non-patch error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server binds HTTP routes to a store.
type Server struct {
	store   *engine.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves m at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a Server over store.
func New(store *engine.Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers the store routes on r.
//
//	GET    /state        current snapshot
//	POST   /patch        raw patch text; ?source=user|llm|system (default user)
//	PUT    /fields/:name JSON value for one field
//	POST   /reset        restore defaults
//	GET    /history      audit entries
//	DELETE /history      clear audit entries
//	GET    /context      prompt context text
//	GET    /tool-schema  function-calling schema
//	GET    /metrics      Prometheus exposition (when configured)
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/state", s.handleState)
	r.POST("/patch", s.handlePatch)
	r.PUT("/fields/:name", s.handleSetField)
	r.POST("/reset", s.handleReset)
	r.GET("/history", s.handleHistory)
	r.DELETE("/history", s.handleClearHistory)
	r.GET("/context", s.handleContext)
	r.GET("/tool-schema", s.handleToolSchema)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "schema", s.store.Registry().Name())
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

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
