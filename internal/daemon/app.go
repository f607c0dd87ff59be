// SPDX-License-Identifier: MIT

package daemon

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App owns the long-lived runtime lifecycle and delegates server
// management to Manager. It exists as a seam for future background work
// (the manager stays focused on servers).
type App struct {
	logger  zerolog.Logger
	manager Manager
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager) (*App, error) {
	if manager == nil {
		return nil, ErrMissingManager
	}
	return &App{logger: logger, manager: manager}, nil
}

// Run starts the manager and blocks until the context is cancelled or a
// server fails. The decision to terminate the process belongs to the
// caller; Run only reports the outcome.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	err := g.Wait()
	if err != nil {
		a.logger.Error().Err(err).Msg("daemon run finished with error")
		return err
	}
	a.logger.Info().Msg("daemon run finished")
	return nil
}
