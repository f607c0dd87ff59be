// SPDX-License-Identifier: MIT

// Package config resolves the daemon configuration with the precedence
// ENV > YAML file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the milter listener and the operational surface.
const (
	DefaultListenNetwork = "unix"
	DefaultSocketDir     = "/var/run/addmsgid"
	DefaultSocketName    = "addmsgid.sock"
	DefaultSocketDirMode = os.FileMode(0o755)
	DefaultSocketMode    = os.FileMode(0o660)
	DefaultOpsListenAddr = "127.0.0.1:8470"

	defaultShutdownTimeout = 15 * time.Second
)

// AppConfig is the resolved daemon configuration.
type AppConfig struct {
	// ListenNetwork selects the milter transport: "unix", "tcp", "tcp4" or "tcp6".
	ListenNetwork string

	// ListenAddr is the socket path for "unix" or host:port for "tcp".
	ListenAddr string

	// SocketDirMode is applied when the socket's parent directory is created.
	SocketDirMode os.FileMode

	// SocketMode is chmod'ed onto the unix socket after listen.
	SocketMode os.FileMode

	// FQDN overrides local fully-qualified-domain-name resolution for
	// generated identifiers. Empty means resolve at startup.
	FQDN string

	// OpsListenAddr is the address of the health/readiness HTTP server.
	// Empty disables the ops server.
	OpsListenAddr string

	// MetricsListenAddr is the address of the Prometheus metrics server.
	// Empty disables the metrics server.
	MetricsListenAddr string

	// ShutdownTimeout bounds graceful shutdown of the ops and metrics servers.
	ShutdownTimeout time.Duration

	// LogLevel and LogService configure the global logger.
	LogLevel   string
	LogService string
}

// fileConfig is the YAML representation of AppConfig. All fields are
// optional; zero values defer to ENV or defaults.
type fileConfig struct {
	Listen struct {
		Network       string `yaml:"network"`
		Addr          string `yaml:"addr"`
		SocketDirMode string `yaml:"socketDirMode"`
		SocketMode    string `yaml:"socketMode"`
	} `yaml:"listen"`
	FQDN string `yaml:"fqdn"`
	Ops  struct {
		Listen        string `yaml:"listen"`
		MetricsListen string `yaml:"metricsListen"`
	} `yaml:"ops"`
	Shutdown struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"shutdown"`
	Log struct {
		Level   string `yaml:"level"`
		Service string `yaml:"service"`
	} `yaml:"log"`
}

// Loader resolves an AppConfig from an optional YAML file plus environment.
type Loader struct {
	path string
}

// NewLoader creates a Loader. path may be empty (env + defaults only).
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load resolves the configuration. A missing file at an explicitly
// configured path is an error; an empty path skips the file layer.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	if l.path != "" {
		raw, err := os.ReadFile(l.path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config file %s: %w", l.path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return AppConfig{}, fmt.Errorf("parse config file %s: %w", l.path, err)
		}
		mergeFile(&cfg, fc)
	}

	mergeEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		ListenNetwork:   DefaultListenNetwork,
		ListenAddr:      DefaultSocketDir + "/" + DefaultSocketName,
		SocketDirMode:   DefaultSocketDirMode,
		SocketMode:      DefaultSocketMode,
		OpsListenAddr:   DefaultOpsListenAddr,
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        "info",
		LogService:      "addmsgid",
	}
}

func mergeFile(cfg *AppConfig, fc fileConfig) {
	if v := strings.TrimSpace(fc.Listen.Network); v != "" {
		cfg.ListenNetwork = v
	}
	if v := strings.TrimSpace(fc.Listen.Addr); v != "" {
		cfg.ListenAddr = v
	}
	if m, ok := parseMode(fc.Listen.SocketDirMode); ok {
		cfg.SocketDirMode = m
	}
	if m, ok := parseMode(fc.Listen.SocketMode); ok {
		cfg.SocketMode = m
	}
	if v := strings.TrimSpace(fc.FQDN); v != "" {
		cfg.FQDN = v
	}
	if v := strings.TrimSpace(fc.Ops.Listen); v != "" {
		cfg.OpsListenAddr = v
	}
	if v := strings.TrimSpace(fc.Ops.MetricsListen); v != "" {
		cfg.MetricsListenAddr = v
	}
	if fc.Shutdown.Timeout > 0 {
		cfg.ShutdownTimeout = fc.Shutdown.Timeout
	}
	if v := strings.TrimSpace(fc.Log.Level); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(fc.Log.Service); v != "" {
		cfg.LogService = v
	}
}

func mergeEnv(cfg *AppConfig) {
	cfg.ListenNetwork = ParseString("ADDMSGID_LISTEN_NETWORK", cfg.ListenNetwork)
	cfg.ListenAddr = ParseString("ADDMSGID_LISTEN_ADDR", cfg.ListenAddr)
	cfg.SocketDirMode = ParseFileMode("ADDMSGID_SOCKET_DIR_MODE", cfg.SocketDirMode)
	cfg.SocketMode = ParseFileMode("ADDMSGID_SOCKET_MODE", cfg.SocketMode)
	cfg.FQDN = ParseString("ADDMSGID_FQDN", cfg.FQDN)
	cfg.OpsListenAddr = ParseString("ADDMSGID_OPS_LISTEN", cfg.OpsListenAddr)
	cfg.MetricsListenAddr = ParseString("ADDMSGID_METRICS_LISTEN", cfg.MetricsListenAddr)
	cfg.ShutdownTimeout = ParseDuration("ADDMSGID_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = ParseString("ADDMSGID_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("ADDMSGID_LOG_SERVICE", cfg.LogService)
}

func parseMode(raw string) (os.FileMode, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	var m uint32
	if _, err := fmt.Sscanf(raw, "%o", &m); err != nil || m > 0o777 {
		return 0, false
	}
	return os.FileMode(m), true
}
