package config

import (
	"slices"

	"github.com/MrWong99/soulsync/internal/selection"
)

// ConfigDiff describes what changed between two configs.
// Hot-reloadable fields are reported individually; everything else is
// summarised in RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	FrameRateChanged bool
	NewFrameRate     int

	HitRadiusChanged bool
	NewHitRadius     float64

	SelectionModeChanged bool
	NewSelectionMode     selection.Mode

	// CanvasSizeChanged applies to canvas connections opened and entities
	// created after the reload. Existing positions are kept.
	CanvasSizeChanged bool
	NewWidth          float64
	NewHeight         float64

	// RestartRequired lists changed fields that only take effect after a
	// restart.
	RestartRequired []string
}

// Changed reports whether any hot-reloadable field changed.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.FrameRateChanged || d.HitRadiusChanged || d.SelectionModeChanged || d.CanvasSizeChanged
}

// SelectionChanged reports whether the hit-test resolver must be rebuilt.
func (d ConfigDiff) SelectionChanged() bool {
	return d.HitRadiusChanged || d.SelectionModeChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Canvas.FrameRate != new.Canvas.FrameRate {
		d.FrameRateChanged = true
		d.NewFrameRate = new.Canvas.FrameRate
	}
	if old.Canvas.HitRadius != new.Canvas.HitRadius {
		d.HitRadiusChanged = true
		d.NewHitRadius = new.Canvas.HitRadius
	}
	if old.Canvas.SelectionMode != new.Canvas.SelectionMode {
		d.SelectionModeChanged = true
		d.NewSelectionMode = new.Canvas.SelectionMode
	}
	if old.Canvas.Width != new.Canvas.Width || old.Canvas.Height != new.Canvas.Height {
		d.CanvasSizeChanged = true
		d.NewWidth, d.NewHeight = new.Canvas.Width, new.Canvas.Height
	}

	restart := func(field string, changed bool) {
		if changed {
			d.RestartRequired = append(d.RestartRequired, field)
		}
	}
	restart("server.listen_addr", old.Server.ListenAddr != new.Server.ListenAddr)
	restart("server.allowed_origins", !slices.Equal(old.Server.AllowedOrigins, new.Server.AllowedOrigins))
	restart("simulation.start_active", old.Simulation.StartActive != new.Simulation.StartActive)
	restart("simulation.strict_types", old.Simulation.StrictTypes != new.Simulation.StrictTypes)
	restart("simulation.placement_seed", old.Simulation.PlacementSeed != new.Simulation.PlacementSeed)
	restart("simulation.sample_entities", old.Simulation.LoadSamples() != new.Simulation.LoadSamples())
	restart("simulation.seed_files", !slices.Equal(old.Simulation.SeedFiles, new.Simulation.SeedFiles))
	restart("translator.seed", old.Translator.Seed != new.Translator.Seed)
	restart("translator.history_size", old.Translator.HistorySize != new.Translator.HistorySize)
	restart("mcp", old.MCP.IsEnabled() != new.MCP.IsEnabled() || old.MCP.Path != new.MCP.Path)
	restart("metrics", old.Metrics.IsEnabled() != new.Metrics.IsEnabled() || old.Metrics.Path != new.Metrics.Path)

	return d
}
