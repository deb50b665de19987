// Package webgate is the framework-based alternative to the hand-rolled
// gate. It exposes the equivalent single check — any method, any path,
// `Authorization: Bearer <secret>` — and delegates every decision to the
// same token store, so the two front ends always agree on a credential.
package webgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Authorizer answers whether a presented secret belongs to a currently
// issued token.
type Authorizer interface {
	Contains(secret string) bool
}

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 90 * time.Second
)

// Server wraps a gin engine in the logging and recovery middleware and
// serves it over net/http.
type Server struct {
	handler http.Handler
	server  *http.Server

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithReadTimeout bounds reading an entire client request.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithWriteTimeout bounds writing an entire response.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// New creates a Server that consults auth for every request.
func New(auth Authorizer, opts ...Option) (*Server, error) {
	if auth == nil {
		return nil, fmt.Errorf("missing authorizer")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Method and path are not distinguished: every request gets the same
	// membership check
	engine.NoRoute(checkHandler(auth))

	s := &Server{
		handler: applyMiddlewares(engine,
			Logging(slog.Default()),
			Recovery,
		),
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// checkHandler answers 200 when the request carries a currently issued
// bearer secret and 401 otherwise. The scheme prefix match is exact and
// case-sensitive, matching the hand-rolled gate.
func checkHandler(auth Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if ok && auth.Contains(secret) {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusUnauthorized)
	}
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  defaultIdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
