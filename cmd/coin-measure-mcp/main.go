package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/coin-measure-mcp/internal/config"
	"github.com/ironsheep/coin-measure-mcp/internal/detection"
	"github.com/ironsheep/coin-measure-mcp/internal/logging"
	"github.com/ironsheep/coin-measure-mcp/internal/metrics"
	"github.com/ironsheep/coin-measure-mcp/internal/server"
	"github.com/ironsheep/coin-measure-mcp/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON configuration file")
	preset      = flag.String("preset", "", "Detection preset (overrides the config file)")
	logLevel    = flag.String("log-level", "", "Log level: trace, debug, info, warn, error")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, "coin-measure-mcp - MCP server for coin-calibrated object measurement")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Usage: coin-measure-mcp [options]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Options:")
		flag.PrintDefaults()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Environment variables:")
		fmt.Fprintf(out, "  %s=debug    Override the log level\n", logging.EnvLevel)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "This server communicates via MCP protocol over stdin/stdout.")
		fmt.Fprintf(out, "Presets: %v\n", detection.PresetNames())
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("coin-measure-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coin-measure-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *preset != "" {
		cfg.Preset = *preset
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	level, err := logging.ParseLevel(logging.ResolveLevel(cfg.LogLevel, *logLevel))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log := logging.NewConsole(level)

	detCfg, err := cfg.DetectionConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Str("preset", cfg.Preset).
		Msg("coin-measure-mcp starting")

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	gate := detection.NewGate(detCfg, vision.WithTimeout(cfg.InitTimeout()))
	gate.Start(ctx)

	det, err := detection.New(detCfg, gate,
		detection.WithLogger(logging.Component(log, "detection")),
		detection.WithObserver(m),
	)
	if err != nil {
		return err
	}

	srv := server.New(det,
		server.WithLogger(logging.Component(log, "server")),
		server.WithMetrics(m),
		server.WithCoinDiameter(cfg.CoinDiameterMM),
		server.WithBatchWorkers(cfg.BatchWorkers),
		server.WithCloseRadius(cfg.CloseRadius),
		server.WithPreset(cfg.Preset),
		server.WithVersion(Version),
	)

	err = srv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("coin-measure-mcp stopped")
	return err
}
