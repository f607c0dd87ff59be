// SPDX-License-Identifier: MIT

package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunHealthcheckCLI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		case "/readyz":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")

	t.Run("live ok", func(t *testing.T) {
		if code := runHealthcheckCLI([]string{"-mode", "live", "-addr", addr}); code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
	})

	t.Run("ready unavailable", func(t *testing.T) {
		if code := runHealthcheckCLI([]string{"-mode", "ready", "-addr", addr}); code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	})

	t.Run("network failure", func(t *testing.T) {
		if code := runHealthcheckCLI([]string{"-addr", "127.0.0.1:1", "-timeout", "500ms"}); code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	})
}
