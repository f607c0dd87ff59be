// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"net"
	"path/filepath"
	"testing"
)

type staticChecker struct {
	name   string
	result CheckResult
}

func (c staticChecker) Name() string                      { return c.name }
func (c staticChecker) Check(context.Context) CheckResult { return c.result }

func TestManagerNoCheckers(t *testing.T) {
	m := NewManager("v-test")

	h := m.Health(context.Background())
	if h.Status != StatusHealthy || h.Version != "v-test" {
		t.Errorf("unexpected health response: %+v", h)
	}
	r := m.Ready(context.Background())
	if !r.Ready {
		t.Error("no checkers should mean ready")
	}
}

func TestManagerAggregation(t *testing.T) {
	m := NewManager("v-test")
	m.RegisterChecker(staticChecker{"ok", CheckResult{Status: StatusHealthy}})
	m.RegisterChecker(staticChecker{"warn", CheckResult{Status: StatusDegraded}})

	r := m.Ready(context.Background())
	if !r.Ready {
		t.Error("degraded checkers must not flip readiness")
	}
	if r.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", r.Status)
	}

	m.RegisterChecker(staticChecker{"down", CheckResult{Status: StatusUnhealthy}})
	r = m.Ready(context.Background())
	if r.Ready {
		t.Error("an unhealthy checker must flip readiness")
	}
	if r.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", r.Status)
	}
	if len(r.Checks) != 3 {
		t.Errorf("expected 3 check results, got %d", len(r.Checks))
	}
}

func TestSocketDirChecker(t *testing.T) {
	dir := t.TempDir()
	c := NewSocketDirChecker("socket_dir", dir)
	if got := c.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("writable temp dir should be healthy: %+v", got)
	}

	missing := NewSocketDirChecker("socket_dir", filepath.Join(dir, "missing"))
	if got := missing.Check(context.Background()); got.Status != StatusUnhealthy {
		t.Errorf("missing dir should be unhealthy: %+v", got)
	}
}

func TestListenerChecker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	up := NewListenerChecker("milter", "tcp", ln.Addr().String())
	if got := up.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("reachable listener should be healthy: %+v", got)
	}

	addr := ln.Addr().String()
	_ = ln.Close()
	down := NewListenerChecker("milter", "tcp", addr)
	if got := down.Check(context.Background()); got.Status != StatusUnhealthy {
		t.Errorf("closed listener should be unhealthy: %+v", got)
	}
}
