// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/d--j/go-milter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mailtools/addmsgid/internal/api"
	"github.com/mailtools/addmsgid/internal/config"
	"github.com/mailtools/addmsgid/internal/daemon"
	"github.com/mailtools/addmsgid/internal/filter"
	"github.com/mailtools/addmsgid/internal/health"
	amlog "github.com/mailtools/addmsgid/internal/log"
	"github.com/mailtools/addmsgid/internal/metrics"
	"github.com/mailtools/addmsgid/internal/msgid"
	"github.com/mailtools/addmsgid/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	amlog.Configure(amlog.Config{
		Level:   "info",
		Service: "addmsgid",
		Version: version.Version,
	})

	logger := amlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config path: explicit via --config, otherwise ADDMSGID_CONFIG if set.
	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		effectiveConfigPath = strings.TrimSpace(config.ParseString("ADDMSGID_CONFIG", ""))
	}

	// Load configuration with precedence: ENV > File > Defaults
	cfg, err := config.NewLoader(effectiveConfigPath).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}
	amlog.SetLevel(cfg.LogLevel)

	if effectiveConfigPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str(amlog.FieldNetwork, cfg.ListenNetwork).
		Str(amlog.FieldAddr, cfg.ListenAddr).
		Msg("starting addmsgid")

	// The domain part of every generated identifier is fixed at startup.
	gen := msgid.New(cfg.FQDN)
	if gen.FQDN() == "" {
		metrics.SetFQDNFallback(true)
		logger.Warn().
			Str("event", "fqdn.unresolved").
			Msg("no fully qualified hostname available, using random fallback domains")
	} else {
		metrics.SetFQDNFallback(false)
		logger.Info().
			Str("event", "fqdn.resolved").
			Str("fqdn", gen.FQDN()).
			Msg("identifier domain resolved")
	}

	healthMgr := health.NewManager(version.Version)
	if cfg.ListenNetwork == "unix" {
		healthMgr.RegisterChecker(health.NewSocketDirChecker("socket-dir", cfg.SocketDir()))
	}
	healthMgr.RegisterChecker(health.NewListenerChecker("milter-listener", cfg.ListenNetwork, cfg.ListenAddr))

	opsHandler := api.New(healthMgr, amlog.WithComponent("api")).Handler()

	mgr, err := daemon.NewManager(daemon.Deps{
		Logger: logger,
		Config: cfg,
		NewMilter: func() milter.Milter {
			return filter.New(gen, amlog.WithComponent("filter"))
		},
		OpsHandler:     opsHandler,
		MetricsHandler: promhttp.Handler(),
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.init_failed").
			Msg("failed to initialise daemon manager")
	}

	app, err := daemon.NewApp(logger, mgr)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.init_failed").
			Msg("failed to initialise application")
	}

	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.run_failed").
			Msg("daemon terminated with error")
	}

	logger.Info().Str("event", "shutdown.complete").Msg("server exiting")
}
