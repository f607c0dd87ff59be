// SPDX-License-Identifier: MIT

// Package api exposes the operational HTTP surface of the daemon:
// liveness, readiness and version endpoints. Mail traffic never touches
// this server; it exists for probes and operators.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mailtools/addmsgid/internal/health"
	"github.com/mailtools/addmsgid/internal/version"
)

// Server bundles the ops router with its dependencies.
type Server struct {
	health *health.Manager
	logger zerolog.Logger
}

// New creates the ops server around a health manager.
func New(hm *health.Manager, logger zerolog.Logger) *Server {
	return &Server{health: hm, logger: logger}
}

// Handler builds the chi router for the ops endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/version", s.handleVersion)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := s.health.Health(r.Context())
	status := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	resp := s.health.Ready(r.Context())
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode ops response")
	}
}
