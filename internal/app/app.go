package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/mellon/internal/gate"
	"github.com/florianilch/mellon/internal/tokenstore"
	"github.com/florianilch/mellon/internal/webgate"
)

// frontEnd is the lifecycle contract both serving front ends satisfy.
type frontEnd interface {
	Start(ctx context.Context, address string) (<-chan error, error)
	Shutdown(ctx context.Context) error
}

// App orchestrates the lifecycle of the token store and the serving front end.
type App struct {
	cfg   *Config
	store *tokenstore.Store
	front frontEnd
}

// New creates a new App instance. The token store performs its initial
// load here, so a corrupt token file fails startup rather than serving.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := tokenstore.New(cfg.Store.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load token store: %w", err)
	}

	var front frontEnd
	switch cfg.Server.Mode {
	case ServerModeWeb:
		front, err = webgate.New(store,
			webgate.WithReadTimeout(cfg.Server.ReadTimeout),
			webgate.WithWriteTimeout(cfg.Server.WriteTimeout),
		)
	default:
		front, err = gate.New(store,
			gate.WithReadTimeout(cfg.Server.ReadTimeout),
			gate.WithWriteTimeout(cfg.Server.WriteTimeout),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &App{
		cfg:   cfg,
		store: store,
		front: front,
	}, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	// Startup phase: start the serving front end
	slog.InfoContext(gCtx, "starting auth server", "address", address, "mode", a.cfg.Server.Mode, "store", a.store.Path())
	serverErrCh, err := a.front.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.front.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	// SIGHUP reloads the token store so administrative changes become
	// visible without a restart. A failed reload keeps the previous state.
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		for {
			select {
			case <-hup:
				if err := a.store.Reload(); err != nil {
					slog.ErrorContext(gCtx, "token store reload failed, previous state kept", "error", err)
					continue
				}
				slog.InfoContext(gCtx, "token store reloaded", "tokens", len(a.store.Tokens()))
			case <-gCtx.Done():
				return nil
			}
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
