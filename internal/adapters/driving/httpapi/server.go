// Package httpapi provides the HTTP front door for medroute, built on gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/medroute/internal/core/ports/driving"
	"github.com/custodia-labs/medroute/internal/logger"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("http: query service is required")

// Default request values.
const (
	DefaultK    = 8
	DefaultTopN = 3
)

// Options configures the HTTP server.
type Options struct {
	// DefaultK is used when a query request omits k.
	DefaultK int

	// Mode is the gin mode (release, debug, test). Defaults to release.
	Mode string
}

// Server serves the query pipeline over HTTP.
type Server struct {
	query    driving.QueryService
	defaultK int
	engine   *gin.Engine
}

// NewServer creates a server and registers its routes.
func NewServer(query driving.QueryService, opts Options) (*Server, error) {
	if query == nil {
		return nil, ErrMissingQueryService
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = DefaultK
	}
	if opts.Mode == "" {
		opts.Mode = gin.ReleaseMode
	}
	gin.SetMode(opts.Mode)

	s := &Server{
		query:    query,
		defaultK: opts.DefaultK,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestID(), requestLogger())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.POST("/route", s.handleRoute)
	v1.GET("/topics", s.handleTopics)
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("http: listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}
