package gate

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
)

// handle serves a single connection to completion. Failures are logged and
// stop here; they never reach the accept loop or other connections.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic while serving connection", "remote", conn.RemoteAddr(), "panic", r)
		}
	}()

	remote := conn.RemoteAddr().String()

	// One overall deadline for the whole header-scanning phase
	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		slog.ErrorContext(ctx, "failed to set read deadline", "remote", remote, "error", err)
		return
	}

	secret, found, err := scanBearer(conn)

	authorized := false
	switch {
	case err != nil:
		// Timeouts and read errors both mean "no credential found", but
		// they log differently
		if isTimeout(err) {
			slog.WarnContext(ctx, "connection timed out while reading headers", "remote", remote)
		} else {
			slog.WarnContext(ctx, "failed to read headers", "remote", remote, "error", err)
		}
	case found:
		authorized = s.auth.Contains(secret)
	}

	status := statusUnauthorized
	if authorized {
		status = statusOK
	}

	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		slog.ErrorContext(ctx, "failed to set write deadline", "remote", remote, "error", err)
		return
	}
	if _, err := io.WriteString(conn, status); err != nil {
		slog.WarnContext(ctx, "failed to write response", "remote", remote, "error", err)
		return
	}

	slog.DebugContext(ctx, "served connection", "remote", remote, "authorized", authorized)
}

// scanBearer reads header lines until it finds a bearer credential or an
// empty line ends the headers. The returned bool reports whether a
// credential was found; a nil error with found=false means the headers
// were exhausted (or the client closed) without presenting one.
func scanBearer(r io.Reader) (string, bool, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if secret, ok := strings.CutPrefix(line, bearerPrefix); ok {
			return secret, true, nil
		}
		if line == "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, err
	}
	return "", false, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
