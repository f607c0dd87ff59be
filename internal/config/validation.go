// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// Validate checks the resolved configuration for values that would make the
// daemon fail later in a less obvious way. It is called by Loader.Load.
func (c AppConfig) Validate() error {
	switch c.ListenNetwork {
	case "unix":
		if strings.TrimSpace(c.ListenAddr) == "" {
			return fmt.Errorf("%w: unix listener requires a socket path", ErrInvalidListener)
		}
		if !filepath.IsAbs(c.ListenAddr) {
			return fmt.Errorf("%w: socket path %q must be absolute", ErrInvalidListener, c.ListenAddr)
		}
	case "tcp", "tcp4", "tcp6":
		if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
			return fmt.Errorf("%w: %q is not host:port: %v", ErrInvalidListener, c.ListenAddr, err)
		}
	default:
		return fmt.Errorf("%w: unsupported network %q", ErrInvalidListener, c.ListenNetwork)
	}

	if c.OpsListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.OpsListenAddr); err != nil {
			return fmt.Errorf("%w: ops listen %q is not host:port: %v", ErrInvalidListener, c.OpsListenAddr, err)
		}
	}
	if c.MetricsListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsListenAddr); err != nil {
			return fmt.Errorf("%w: metrics listen %q is not host:port: %v", ErrInvalidListener, c.MetricsListenAddr, err)
		}
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidTimeout)
	}
	return nil
}

// SocketDir returns the directory containing the unix socket, or "" for
// non-unix listeners.
func (c AppConfig) SocketDir() string {
	if c.ListenNetwork != "unix" {
		return ""
	}
	return filepath.Dir(c.ListenAddr)
}
