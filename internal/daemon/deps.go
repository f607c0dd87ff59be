// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"

	"github.com/d--j/go-milter"
	"github.com/rs/zerolog"

	"github.com/mailtools/addmsgid/internal/config"
)

// Deps contains dependencies required by the daemon Manager.
// This allows for clean dependency injection and easier testing.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// Config is the resolved daemon configuration
	Config config.AppConfig

	// NewMilter creates one milter instance per accepted MTA connection
	NewMilter func() milter.Milter

	// OpsHandler is the HTTP handler for the health/readiness server (optional)
	OpsHandler http.Handler

	// MetricsHandler is the HTTP handler for Prometheus metrics (optional)
	MetricsHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.NewMilter == nil {
		return ErrMissingMilterFactory
	}
	// Config validation is done by config.Loader
	return nil
}
