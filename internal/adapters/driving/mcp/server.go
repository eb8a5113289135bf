package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/medroute/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds how long RunHTTP waits for open sessions.
const shutdownTimeout = 5 * time.Second

// Server exposes topic routing and literature search to MCP clients.
type Server struct {
	ports       *Ports
	server      *mcp.Server
	defaultK    int
	defaultTopN int
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultK sets the abstracts returned by search_literature when k is omitted.
func WithDefaultK(k int) Option {
	return func(s *Server) {
		if k > 0 {
			s.defaultK = k
		}
	}
}

// WithDefaultTopN sets the topics returned by route_query when top_n is omitted.
func WithDefaultTopN(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.defaultTopN = n
		}
	}
}

// NewServer creates an MCP server backed by ports.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:       ports,
		defaultK:    defaultK,
		defaultTopN: defaultTopN,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "medroute", Version: Version},
		&mcp.ServerOptions{Instructions: s.instructions()},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells clients which topics the loaded router covers.
func (s *Server) instructions() string {
	topics := s.ports.Query.Topics()
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Medical literature router (model %s, %d topics", s.ports.Query.ModelName(), len(topics))
	if len(names) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(names, ", "))
	}
	b.WriteString(").\n")
	b.WriteString("Use route_query to see which topics match a question, ")
	b.WriteString("and search_literature to retrieve abstracts from the best topic or a named one.")
	return b.String()
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler. Every session shares the
// same server and its warm topic indexes.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves over streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Debug("MCP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
