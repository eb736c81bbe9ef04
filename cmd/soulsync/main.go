// Command soulsync serves the SoulSync consciousness sandbox: the live
// canvas, the REST API, the MCP tool server and the metrics endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/soulsync/internal/app"
	"github.com/MrWong99/soulsync/internal/config"
	"github.com/MrWong99/soulsync/internal/observe"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (built-in defaults when empty)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	var (
		cfg     *config.Config
		watcher *config.Watcher
		err     error
	)
	// The watcher callback needs the app, which needs the config.
	var application *app.App
	onChange := func(old, new *config.Config) {
		if application != nil {
			application.ApplyConfig(old, new)
		}
	}
	if *configPath == "" {
		cfg = config.Default()
	} else {
		watcher, err = config.NewWatcher(*configPath, onChange)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "soulsync: config file %q not found; omit -config to run with defaults\n", *configPath)
			} else {
				fmt.Fprintf(os.Stderr, "soulsync: %v\n", err)
			}
			return 1
		}
		cfg = watcher.Current()
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(cfg.Server.LogLevel.Slog())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("soulsync starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	telemetry, err := observe.NewProvider(context.Background(), observe.ProviderConfig{
		ServiceName:    "soulsync",
		ServiceVersion: version,
		SetGlobal:      true,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics, err := observe.NewMetrics(telemetry.MeterProvider())
	if err != nil {
		slog.Error("failed to create metric instruments", "err", err)
		return 1
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []app.Option{
		app.WithLevelVar(&level),
		app.WithVersion(version),
		app.WithMetrics(metrics),
		app.WithMetricsHandler(telemetry.Handler()),
	}
	if watcher != nil {
		opts = append(opts, app.WithWatcher(watcher))
	}
	application, err = app.New(ctx, cfg, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg, len(application.Session().Snapshot().Entities))

	slog.Info("server ready, press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, entities int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        SoulSync, startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Listen addr", cfg.Server.ListenAddr)
	printRow("Canvas", fmt.Sprintf("%gx%g @ %d fps", cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.FrameRate))
	printRow("Selection", fmt.Sprintf("%s, r=%g", cfg.Canvas.SelectionMode, cfg.Canvas.HitRadius))
	printRow("Entities", fmt.Sprintf("%d", entities))
	printRow("Strict types", enabled(cfg.Simulation.StrictTypes))
	printRow("MCP", pathOrDisabled(cfg.MCP.IsEnabled(), cfg.MCP.Path))
	printRow("Metrics", pathOrDisabled(cfg.Metrics.IsEnabled(), cfg.Metrics.Path))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "..."
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

func enabled(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func pathOrDisabled(on bool, path string) string {
	if !on {
		return "(disabled)"
	}
	return path
}
