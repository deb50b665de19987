// Package gate implements the hand-rolled network front end: a TCP
// listener whose connection handler reads a deliberately minimal subset of
// HTTP/1.1 — header lines up to the first blank line, recognizing exactly
// one header form — and answers with a bare status line.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Authorizer answers whether a presented secret belongs to a currently
// issued token.
type Authorizer interface {
	Contains(secret string) bool
}

// bearerPrefix is the single recognized header form. The match is exact
// and case-sensitive; clients varying header-name casing are not
// normalized.
const bearerPrefix = "Authorization: Bearer "

const (
	statusOK           = "HTTP/1.1 200 OK\r\n\r\n"
	statusUnauthorized = "HTTP/1.1 401 Unauthorized\r\n\r\n"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// Server accepts connections and dispatches each to its own goroutine, so
// one slow or idle client never head-of-line-blocks the others.
type Server struct {
	auth         Authorizer
	readTimeout  time.Duration
	writeTimeout time.Duration

	listener net.Listener
	conns    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithReadTimeout bounds the whole header-scanning phase of a connection.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithWriteTimeout bounds writing the response to a connection.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// New creates a Server that consults auth for every presented credential.
func New(auth Authorizer, opts ...Option) (*Server, error) {
	if auth == nil {
		return nil, fmt.Errorf("missing authorizer")
	}

	s := &Server{
		auth:         auth,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start binds the address and starts accepting in the background.
// Returns a channel for runtime errors and a startup error if any.
//
// Bind failures (port in use, permission denied) are returned immediately.
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: bind synchronously so address errors abort startup
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s.listener = listener

	errCh := make(chan error, 1)

	go func() {
		err := s.acceptLoop(ctx)
		if err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// acceptLoop accepts until the listener is closed. Accept failures are
// logged and the loop keeps accepting; they never terminate the server.
func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.ErrorContext(ctx, "error accepting connection", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handle(ctx, conn)
		}()
	}
}

// Shutdown closes the listener and waits for in-flight connections to
// drain, up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}

	closeErr := s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(closeErr, fmt.Errorf("waiting for open connections: %w", ctx.Err()))
	}

	return closeErr
}
