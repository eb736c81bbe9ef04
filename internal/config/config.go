// Package config provides the configuration schema, loader and hot-reload
// watcher for the SoulSync server.
package config

import (
	"log/slog"

	"github.com/MrWong99/soulsync/internal/selection"
)

// LogLevel controls log verbosity for the SoulSync server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog returns the matching [slog.Level]. Unknown levels map to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr    = ":8080"
	DefaultCanvasWidth   = 600
	DefaultCanvasHeight  = 400
	DefaultFrameRate     = 30
	DefaultHitRadius     = selection.DefaultHitRadius
	DefaultHistorySize   = 5
	DefaultMCPPath       = "/mcp"
	DefaultMetricsPath   = "/metrics"
	MaxFrameRate         = 240
	recommendedFrameRate = 60
)

// Config is the root configuration structure for SoulSync.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Canvas     CanvasConfig     `yaml:"canvas"`
	Simulation SimulationConfig `yaml:"simulation"`
	Translator TranslatorConfig `yaml:"translator"`
	MCP        MCPConfig        `yaml:"mcp"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`

	// AllowedOrigins lists extra origins permitted to open canvas
	// WebSockets. Same-origin connections are always accepted.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CanvasConfig controls rendering and hit testing.
type CanvasConfig struct {
	// Width and Height are the surface size before a client reports its own
	// and the bounds new entities are clamped to. Hot-reloadable for new
	// connections and new entities.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// FrameRate is the render loop rate in frames per second. Hot-reloadable.
	FrameRate int `yaml:"frame_rate"`

	// HitRadius is the selection distance in pixels. Hot-reloadable.
	HitRadius float64 `yaml:"hit_radius"`

	// SelectionMode picks among overlapping entities: "first" or "nearest".
	// Hot-reloadable.
	SelectionMode selection.Mode `yaml:"selection_mode"`
}

// SimulationConfig controls the initial session state.
type SimulationConfig struct {
	// StartActive starts the simulation with pulse rings enabled.
	StartActive bool `yaml:"start_active"`

	// StrictTypes rejects unrecognised interaction types instead of
	// recording them with a fallback summary.
	StrictTypes bool `yaml:"strict_types"`

	// PlacementSeed seeds random entity placement; 0 is time-based.
	PlacementSeed uint64 `yaml:"placement_seed"`

	// SampleEntities loads the two built-in sample entities. A nil value
	// means true.
	SampleEntities *bool `yaml:"sample_entities"`

	// SeedFiles are YAML entity seed files imported at startup, in order.
	SeedFiles []string `yaml:"seed_files"`
}

// LoadSamples reports whether the built-in sample entities are loaded.
func (s SimulationConfig) LoadSamples() bool {
	return s.SampleEntities == nil || *s.SampleEntities
}

// TranslatorConfig controls the intent translator.
type TranslatorConfig struct {
	// Seed makes translations reproducible; 0 is time-based.
	Seed uint64 `yaml:"seed"`

	// HistorySize bounds the translation history.
	HistorySize int `yaml:"history_size"`
}

// MCPConfig controls the agent tool server.
type MCPConfig struct {
	// Enabled mounts the MCP server. A nil value means true.
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path of the streamable transport.
	Path string `yaml:"path"`
}

// IsEnabled reports whether the MCP server is mounted.
func (m MCPConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled mounts the metrics endpoint. A nil value means true.
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path of the scrape endpoint.
	Path string `yaml:"path"`
}

// IsEnabled reports whether the metrics endpoint is mounted.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields of cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Canvas.Width == 0 {
		cfg.Canvas.Width = DefaultCanvasWidth
	}
	if cfg.Canvas.Height == 0 {
		cfg.Canvas.Height = DefaultCanvasHeight
	}
	if cfg.Canvas.FrameRate == 0 {
		cfg.Canvas.FrameRate = DefaultFrameRate
	}
	if cfg.Canvas.HitRadius == 0 {
		cfg.Canvas.HitRadius = DefaultHitRadius
	}
	if cfg.Canvas.SelectionMode == "" {
		cfg.Canvas.SelectionMode = selection.ModeFirst
	}
	if cfg.Translator.HistorySize == 0 {
		cfg.Translator.HistorySize = DefaultHistorySize
	}
	if cfg.MCP.Path == "" {
		cfg.MCP.Path = DefaultMCPPath
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
