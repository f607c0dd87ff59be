// SPDX-License-Identifier: MIT

// Package daemon owns the process lifecycle: provisioning the milter
// listening endpoint, supervising the milter, ops and metrics servers,
// and tearing everything down on shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/d--j/go-milter"
	"github.com/rs/zerolog"

	"github.com/mailtools/addmsgid/internal/filter"
	"github.com/mailtools/addmsgid/internal/log"
)

// ShutdownHook is a function that performs cleanup during shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start starts all configured servers and blocks until shutdown
	Start(ctx context.Context) error

	// Shutdown shuts down all servers
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)

	// Addr returns the milter listener address once started ("" before).
	Addr() net.Addr
}

// manager implements the Manager interface.
type manager struct {
	deps Deps

	// Servers
	milterServer  *milter.Server
	milterAddr    net.Addr
	opsServer     *http.Server
	metricsServer *http.Server

	// Shutdown hooks (LIFO order)
	shutdownHooks []namedHook

	// State
	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

// namedHook represents a shutdown hook with a name for logging
type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given dependencies.
func NewManager(deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &manager{
		deps:          deps,
		logger:        deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
		shutdownHooks: make([]namedHook, 0),
	}, nil
}

// Start provisions the milter endpoint, starts all configured servers
// and blocks until the context is cancelled or a server fails.
//
// In-flight MTA connections are not drained on shutdown: the milter
// server is closed and the MTA is expected to retry or fail open, the
// same way the daemon behaves on a crash.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	cfg := m.deps.Config
	m.logger.Info().
		Str("network", cfg.ListenNetwork).
		Str("addr", cfg.ListenAddr).
		Dur("shutdown_timeout", cfg.ShutdownTimeout).
		Msg("Starting daemon manager")

	// Error channel for server failures
	errChan := make(chan error, 3)

	if err := m.startMilterServer(errChan); err != nil {
		return fmt.Errorf("failed to start milter server: %w", err)
	}

	if m.deps.OpsHandler != nil && cfg.OpsListenAddr != "" {
		m.startOpsServer(errChan)
	}

	if m.deps.MetricsHandler != nil && cfg.MetricsListenAddr != "" {
		m.startMetricsServer(errChan)
	}

	// Wait for shutdown signal or server error
	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("Server error, initiating shutdown")
		// Use a detached-but-bounded context so shutdown can complete even if parent is canceled.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := m.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return m.Shutdown(shutdownCtx)
	}
}

// Addr returns the milter listener address, or nil before Start.
func (m *manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.milterAddr
}

// startMilterServer provisions the listening endpoint and serves the
// milter protocol on it.
func (m *manager) startMilterServer(errChan chan<- error) error {
	cfg := m.deps.Config

	ln, cleanup, err := provisionListener(cfg.ListenNetwork, cfg.ListenAddr, cfg.SocketDirMode, cfg.SocketMode, m.logger)
	if err != nil {
		return err
	}
	m.RegisterShutdownHook("milter-socket-cleanup", func(context.Context) error {
		cleanup()
		return nil
	})

	m.milterServer = milter.NewServer(
		milter.WithMilter(m.deps.NewMilter),
		milter.WithActions(filter.RequiredActions),
		milter.WithProtocols(filter.SuppressedPhases),
		// The queue id is only delivered if we ask for it; it is used for
		// log correlation at end-of-message.
		milter.WithMacroRequest(milter.StageEOM, []milter.MacroName{milter.MacroQueueId}),
	)

	m.mu.Lock()
	m.milterAddr = ln.Addr()
	m.mu.Unlock()

	go func() {
		m.logger.Info().
			Str("network", ln.Addr().Network()).
			Str("addr", ln.Addr().String()).
			Msg("Milter server listening")

		if err := m.milterServer.Serve(ln); err != nil && !errors.Is(err, milter.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str("event", "milter.server.failed").
				Msg("Milter server failed")
			errChan <- fmt.Errorf("milter server: %w", err)
		}
	}()

	return nil
}

// startOpsServer starts the health/readiness HTTP server.
func (m *manager) startOpsServer(errChan chan<- error) {
	m.opsServer = &http.Server{
		Addr:              m.deps.Config.OpsListenAddr,
		Handler:           m.deps.OpsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info().
			Str("addr", m.opsServer.Addr).
			Msg("Ops server listening")

		if err := m.opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str("event", "ops.server.failed").
				Msg("Ops server failed")
			errChan <- fmt.Errorf("ops server: %w", err)
		}
	}()
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func (m *manager) startMetricsServer(errChan chan<- error) {
	m.metricsServer = &http.Server{
		Addr:              m.deps.Config.MetricsListenAddr,
		Handler:           m.deps.MetricsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info().
			Str("addr", m.metricsServer.Addr).
			Msg("Metrics server listening")

		if err := m.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str("event", "metrics.server.failed").
				Msg("Metrics server failed")
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	m.mu.Unlock()

	m.logger.Info().Msg("Shutting down daemon manager")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.deps.Config.ShutdownTimeout)
	defer cancel()

	var errs []error

	// Close the milter server first so the MTA stops handing us messages.
	// Connections in flight are cut, not drained.
	if m.milterServer != nil {
		m.logger.Debug().Msg("Closing milter server")
		if err := m.milterServer.Close(); err != nil && !errors.Is(err, milter.ErrServerClosed) {
			errs = append(errs, fmt.Errorf("milter server close: %w", err))
		}
	}

	if m.opsServer != nil {
		m.logger.Debug().Msg("Shutting down ops server")
		if err := m.opsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("ops server shutdown: %w", err))
		}
	}

	if m.metricsServer != nil {
		m.logger.Debug().Msg("Shutting down metrics server")
		if err := m.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Execute shutdown hooks in reverse order (LIFO)
	m.logger.Debug().Int("hooks", len(m.shutdownHooks)).Msg("Executing shutdown hooks")
	for i := len(m.shutdownHooks) - 1; i >= 0; i-- {
		hook := m.shutdownHooks[i]

		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("Shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			m.logger.Debug().
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("Shutdown hook completed")
		}
	}

	if len(errs) > 0 {
		m.logger.Error().
			Int("error_count", len(errs)).
			Msg("Shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Msg("Daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{
		name: name,
		hook: hook,
	})
	m.logger.Debug().Str("hook", name).Msg("Registered shutdown hook")
}
