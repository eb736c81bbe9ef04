package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found and logs
// warnings for values that are legal but unusual.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Canvas
	if cfg.Canvas.Width < 0 || cfg.Canvas.Height < 0 {
		errs = append(errs, fmt.Errorf("canvas.width and canvas.height must not be negative (got %vx%v)", cfg.Canvas.Width, cfg.Canvas.Height))
	}
	if cfg.Canvas.FrameRate < 0 || cfg.Canvas.FrameRate > MaxFrameRate {
		errs = append(errs, fmt.Errorf("canvas.frame_rate %d is out of range [1, %d]", cfg.Canvas.FrameRate, MaxFrameRate))
	} else if cfg.Canvas.FrameRate > recommendedFrameRate {
		slog.Warn("canvas.frame_rate is high; every connected canvas receives one frame per tick",
			"frame_rate", cfg.Canvas.FrameRate)
	}
	if cfg.Canvas.HitRadius < 0 {
		errs = append(errs, fmt.Errorf("canvas.hit_radius %v must not be negative", cfg.Canvas.HitRadius))
	}
	if cfg.Canvas.SelectionMode != "" && !cfg.Canvas.SelectionMode.IsValid() {
		errs = append(errs, fmt.Errorf("canvas.selection_mode %q is invalid; valid values: first, nearest", cfg.Canvas.SelectionMode))
	}

	// Simulation
	for i, path := range cfg.Simulation.SeedFiles {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, fmt.Errorf("simulation.seed_files[%d] is empty", i))
		}
	}
	if !cfg.Simulation.LoadSamples() && len(cfg.Simulation.SeedFiles) == 0 {
		slog.Warn("simulation starts empty: sample entities are disabled and no seed files are configured")
	}

	// Translator
	if cfg.Translator.HistorySize < 0 {
		errs = append(errs, fmt.Errorf("translator.history_size %d must not be negative", cfg.Translator.HistorySize))
	}

	// Endpoints
	errs = append(errs, validatePath("mcp.path", cfg.MCP.Path)...)
	errs = append(errs, validatePath("metrics.path", cfg.Metrics.Path)...)
	if cfg.MCP.IsEnabled() && cfg.Metrics.IsEnabled() && cfg.MCP.Path != "" && cfg.MCP.Path == cfg.Metrics.Path {
		errs = append(errs, fmt.Errorf("mcp.path and metrics.path must differ (both %q)", cfg.MCP.Path))
	}

	return errors.Join(errs...)
}

// reservedPrefixes are served by the application itself.
var reservedPrefixes = []string{"/api/", "/canvas/", "/healthz", "/readyz"}

func validatePath(field, path string) []error {
	if path == "" {
		return nil
	}
	var errs []error
	if !strings.HasPrefix(path, "/") {
		errs = append(errs, fmt.Errorf("%s %q must start with /", field, path))
	}
	if path == "/" {
		errs = append(errs, fmt.Errorf("%s must not be the root path", field))
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(path, p) || path+"/" == p {
			errs = append(errs, fmt.Errorf("%s %q collides with the built-in route %s", field, path, p))
		}
	}
	return errs
}
