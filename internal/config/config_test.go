// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "unix", cfg.ListenNetwork)
	assert.Equal(t, "/var/run/addmsgid/addmsgid.sock", cfg.ListenAddr)
	assert.Equal(t, os.FileMode(0o755), cfg.SocketDirMode)
	assert.Equal(t, os.FileMode(0o660), cfg.SocketMode)
	assert.Equal(t, DefaultOpsListenAddr, cfg.OpsListenAddr)
	assert.Empty(t, cfg.MetricsListenAddr)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
listen:
  network: tcp
  addr: 127.0.0.1:7357
ops:
  listen: 127.0.0.1:9000
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("ADDMSGID_OPS_LISTEN", "127.0.0.1:9001")
	t.Setenv("ADDMSGID_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	// file layer
	assert.Equal(t, "tcp", cfg.ListenNetwork)
	assert.Equal(t, "127.0.0.1:7357", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	// env wins over file
	assert.Equal(t, "127.0.0.1:9001", cfg.OpsListenAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.Error(t, err)
}

func TestLoadSocketModesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
listen:
  socketDirMode: "0750"
  socketMode: "0600"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), cfg.SocketDirMode)
	assert.Equal(t, os.FileMode(0o600), cfg.SocketMode)
}

func TestValidate(t *testing.T) {
	base := defaults()

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr error
	}{
		{"defaults ok", func(*AppConfig) {}, nil},
		{"relative socket path", func(c *AppConfig) { c.ListenAddr = "run/milter.sock" }, ErrInvalidListener},
		{"empty socket path", func(c *AppConfig) { c.ListenAddr = " " }, ErrInvalidListener},
		{"unknown network", func(c *AppConfig) { c.ListenNetwork = "udp" }, ErrInvalidListener},
		{"tcp without port", func(c *AppConfig) {
			c.ListenNetwork = "tcp"
			c.ListenAddr = "127.0.0.1"
		}, ErrInvalidListener},
		{"bad ops addr", func(c *AppConfig) { c.OpsListenAddr = "localhost" }, ErrInvalidListener},
		{"bad metrics addr", func(c *AppConfig) { c.MetricsListenAddr = "nope" }, ErrInvalidListener},
		{"zero shutdown timeout", func(c *AppConfig) { c.ShutdownTimeout = 0 }, ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSocketDir(t *testing.T) {
	cfg := defaults()
	assert.Equal(t, "/var/run/addmsgid", cfg.SocketDir())

	cfg.ListenNetwork = "tcp"
	cfg.ListenAddr = "127.0.0.1:7357"
	assert.Empty(t, cfg.SocketDir())
}
