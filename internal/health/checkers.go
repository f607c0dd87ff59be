// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"time"
)

// SocketDirChecker verifies that the milter socket's parent directory
// exists and is writable, catching permission drift after startup.
type SocketDirChecker struct {
	name string
	dir  string
}

// NewSocketDirChecker creates a checker for the given directory.
func NewSocketDirChecker(name, dir string) *SocketDirChecker {
	return &SocketDirChecker{name: name, dir: dir}
}

func (c *SocketDirChecker) Name() string { return c.name }

func (c *SocketDirChecker) Check(_ context.Context) CheckResult {
	info, err := os.Stat(c.dir)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Message: "not a directory"}
	}

	probe, err := os.CreateTemp(c.dir, ".healthprobe-*")
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return CheckResult{Status: StatusHealthy, Message: filepath.Clean(c.dir)}
}

// ListenerChecker dials the milter listener to confirm the daemon is
// accepting MTA connections.
type ListenerChecker struct {
	name    string
	network string
	addr    string
	timeout time.Duration
}

// NewListenerChecker creates a checker that dials network/addr.
func NewListenerChecker(name, network, addr string) *ListenerChecker {
	return &ListenerChecker{name: name, network: network, addr: addr, timeout: 2 * time.Second}
}

func (c *ListenerChecker) Name() string { return c.name }

func (c *ListenerChecker) Check(ctx context.Context) CheckResult {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, c.network, c.addr)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	_ = conn.Close()
	return CheckResult{Status: StatusHealthy, Message: c.addr}
}
