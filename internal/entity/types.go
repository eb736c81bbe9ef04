// Package entity provides the in-memory Entity Store for a SoulSync session.
//
// An entity is a simulated consciousness node: a display name, a blueprint of
// parameters that drive its colour, pulse and categorisation, and a fixed
// position on the canvas. Entities are created once and never mutated or
// deleted while the session lives.
//
// Entities enter the store through three routes:
//   - Interactive creation ([Store.Create]) from the REST or MCP surfaces
//   - Seed files ([LoadSeedFile], [LoadSeedsFromReader])
//   - The built-in samples ([SampleSeeds])
//
// All store operations are safe for concurrent use.
package entity

import (
	"slices"
	"time"
)

// Entity is a single node of the interaction graph.
type Entity struct {
	// ID is a unique, opaque identifier. Immutable after creation.
	ID string `json:"id"`

	// Name is the non-empty display label.
	Name string `json:"name"`

	// Blueprint holds the parameters that define the entity.
	Blueprint Blueprint `json:"blueprint"`

	// Position is the entity's location in canvas space. It is set once at
	// creation and never changed afterwards.
	Position Position `json:"position"`

	// CreatedAt orders entities by creation. It is non-decreasing across
	// creations within one store.
	CreatedAt time.Time `json:"created_at"`
}

// Blueprint is the structured parameter set of an entity.
type Blueprint struct {
	// EmotionalVector holds exactly three components, each in [0, 1]
	// (resonance, harmony, complexity).
	EmotionalVector []float64 `json:"emotionalVector" yaml:"emotional_vector"`

	// LogicLoops is a non-empty set of distinct tags. Insertion order is
	// kept for display.
	LogicLoops []string `json:"logicLoops" yaml:"logic_loops"`

	// TemporalStructure classifies how the entity experiences time.
	TemporalStructure TemporalStructure `json:"temporalStructure" yaml:"temporal_structure"`

	// ResonanceFreq is the entity's frequency in Hz, within
	// [MinResonanceFreq, MaxResonanceFreq]. It drives the render hue.
	ResonanceFreq float64 `json:"resonanceFreq" yaml:"resonance_freq"`

	// MemoryStability is in [0, 1].
	MemoryStability float64 `json:"memoryStability" yaml:"memory_stability"`
}

// Clone returns a deep copy of b.
func (b Blueprint) Clone() Blueprint {
	b.EmotionalVector = slices.Clone(b.EmotionalVector)
	b.LogicLoops = slices.Clone(b.LogicLoops)
	return b
}

// Position is a 2D coordinate in canvas pixels.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Bounds is the size of the canvas that positions are clamped to.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp returns p moved inside b. A zero-sized axis is left unclamped. On a
// bounded axis NaN clamps to 0.
func (b Bounds) Clamp(p Position) Position {
	if b.Width > 0 {
		p.X = clampAxis(p.X, b.Width)
	}
	if b.Height > 0 {
		p.Y = clampAxis(p.Y, b.Height)
	}
	return p
}

func clampAxis(v, limit float64) float64 {
	switch {
	case !(v >= 0):
		return 0
	case v > limit:
		return limit
	default:
		return v
	}
}

// TemporalStructure is the fixed enumeration of time-structure kinds.
type TemporalStructure string

const (
	TemporalLinear      TemporalStructure = "linear"
	TemporalSpiral      TemporalStructure = "spiral"
	TemporalFractal     TemporalStructure = "fractal"
	TemporalQuantum     TemporalStructure = "quantum"
	TemporalCyclical    TemporalStructure = "cyclical"
	TemporalCrystalline TemporalStructure = "crystalline"
)

// TemporalStructures lists every recognised kind in display order.
var TemporalStructures = []TemporalStructure{
	TemporalLinear, TemporalSpiral, TemporalFractal,
	TemporalQuantum, TemporalCyclical, TemporalCrystalline,
}

// IsValid reports whether t is a recognised temporal structure.
func (t TemporalStructure) IsValid() bool {
	return slices.Contains(TemporalStructures, t)
}

// Blueprint value ranges.
const (
	MinResonanceFreq = 100.0
	MaxResonanceFreq = 1000.0

	// EmotionalDimensions is the required length of Blueprint.EmotionalVector.
	EmotionalDimensions = 3
)

// LogicLoopSuggestions are the tags offered by the builder. Any other
// non-empty tag is accepted as well.
var LogicLoopSuggestions = []string{
	"reflection", "synthesis", "recursion", "emergence", "fragmentation",
	"harmonization", "divergence", "convergence", "resonance", "dissolution",
}

// DefaultBlueprint returns the blueprint a fresh builder form starts with.
func DefaultBlueprint() Blueprint {
	return Blueprint{
		EmotionalVector:   []float64{0.5, 0.5, 0.5},
		LogicLoops:        []string{"reflection"},
		TemporalStructure: TemporalLinear,
		ResonanceFreq:     432,
		MemoryStability:   0.7,
	}
}

// Input is what an authoring collaborator supplies to create an entity.
type Input struct {
	Name      string    `json:"name"`
	Blueprint Blueprint `json:"blueprint"`
}
