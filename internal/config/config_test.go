package config_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/MrWong99/soulsync/internal/config"
	"github.com/MrWong99/soulsync/internal/selection"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
  allowed_origins:
    - "localhost:5173"

canvas:
  width: 800
  height: 500
  frame_rate: 60
  hit_radius: 25
  selection_mode: nearest

simulation:
  start_active: true
  strict_types: true
  placement_seed: 42
  sample_entities: false
  seed_files:
    - testdata/entities.yaml

translator:
  seed: 7
  history_size: 10

mcp:
  enabled: false
  path: /agent

metrics:
  path: /internal/metrics
`

func mustLoad(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	return cfg
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	cfg := mustLoad(t, sampleYAML)

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level: got %q", cfg.Server.LogLevel)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "localhost:5173" {
		t.Errorf("allowed_origins: got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Canvas.Width != 800 || cfg.Canvas.Height != 500 {
		t.Errorf("canvas size: got %vx%v", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.FrameRate != 60 || cfg.Canvas.HitRadius != 25 {
		t.Errorf("canvas: got frame_rate=%d hit_radius=%v", cfg.Canvas.FrameRate, cfg.Canvas.HitRadius)
	}
	if cfg.Canvas.SelectionMode != selection.ModeNearest {
		t.Errorf("selection_mode: got %q", cfg.Canvas.SelectionMode)
	}
	if !cfg.Simulation.StartActive || !cfg.Simulation.StrictTypes || cfg.Simulation.PlacementSeed != 42 {
		t.Errorf("simulation: got %+v", cfg.Simulation)
	}
	if cfg.Simulation.LoadSamples() {
		t.Error("sample_entities: expected false")
	}
	if cfg.Translator.Seed != 7 || cfg.Translator.HistorySize != 10 {
		t.Errorf("translator: got %+v", cfg.Translator)
	}
	if cfg.MCP.IsEnabled() || cfg.MCP.Path != "/agent" {
		t.Errorf("mcp: got enabled=%v path=%q", cfg.MCP.IsEnabled(), cfg.MCP.Path)
	}
	if !cfg.Metrics.IsEnabled() || cfg.Metrics.Path != "/internal/metrics" {
		t.Errorf("metrics: got enabled=%v path=%q", cfg.Metrics.IsEnabled(), cfg.Metrics.Path)
	}
}

func TestLoadFromReader_EmptyIsDefault(t *testing.T) {
	t.Parallel()
	cfg := mustLoad(t, "")
	want := config.Default()

	if cfg.Server.ListenAddr != want.Server.ListenAddr || cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server defaults: got %+v", cfg.Server)
	}
	if cfg.Canvas.Width != config.DefaultCanvasWidth || cfg.Canvas.Height != config.DefaultCanvasHeight {
		t.Errorf("canvas size defaults: got %vx%v", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.FrameRate != config.DefaultFrameRate {
		t.Errorf("frame_rate default: got %d", cfg.Canvas.FrameRate)
	}
	if cfg.Canvas.HitRadius != selection.DefaultHitRadius {
		t.Errorf("hit_radius default: got %v", cfg.Canvas.HitRadius)
	}
	if cfg.Canvas.SelectionMode != selection.ModeFirst {
		t.Errorf("selection_mode default: got %q", cfg.Canvas.SelectionMode)
	}
	if !cfg.Simulation.LoadSamples() || cfg.Simulation.StrictTypes || cfg.Simulation.StartActive {
		t.Errorf("simulation defaults: got %+v", cfg.Simulation)
	}
	if cfg.Translator.HistorySize != config.DefaultHistorySize {
		t.Errorf("history_size default: got %d", cfg.Translator.HistorySize)
	}
	if !cfg.MCP.IsEnabled() || cfg.MCP.Path != config.DefaultMCPPath {
		t.Errorf("mcp defaults: got %+v", cfg.MCP)
	}
	if !cfg.Metrics.IsEnabled() || cfg.Metrics.Path != config.DefaultMetricsPath {
		t.Errorf("metrics defaults: got %+v", cfg.Metrics)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("canvas:\n  colour: red\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_MalformedYAML(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server: [unterminated"))
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/soulsync.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLogLevel_Slog(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level config.LogLevel
		want  slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.level.Slog(); got != tc.want {
			t.Errorf("LogLevel(%q).Slog() = %v, want %v", tc.level, got, tc.want)
		}
	}
}
