package entity

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the top-level structure of a SoulSync seed YAML file.
//
// Example:
//
//	seeds:
//	  - id: "1"
//	    name: "Resonance Alpha"
//	    blueprint:
//	      emotional_vector: [0.8, 0.3, 0.9]
//	      logic_loops: [reflection, synthesis]
//	      temporal_structure: spiral
//	      resonance_freq: 432
//	      memory_stability: 0.7
//	    position: {x: 200, y: 150}
type SeedFile struct {
	Seeds []Seed `yaml:"seeds"`
}

// Seed declares one entity to create at session start.
type Seed struct {
	// ID pins the entity ID. Generated when empty.
	ID string `yaml:"id,omitempty"`

	// Name is the entity's display name.
	Name string `yaml:"name"`

	// Blueprint is validated exactly like interactive input.
	Blueprint Blueprint `yaml:"blueprint"`

	// Position places the entity explicitly. When nil the store's placer
	// decides.
	Position *Position `yaml:"position,omitempty"`
}

// LoadSeedFile reads and parses a seed YAML file from disk.
func LoadSeedFile(path string) (*SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("entity: open seed file %q: %w", path, err)
	}
	defer f.Close()

	sf, err := LoadSeedsFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("entity: parse seed file %q: %w", path, err)
	}
	return sf, nil
}

// LoadSeedsFromReader parses seed YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadSeedsFromReader(r io.Reader) (*SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&sf); err != nil {
		if err == io.EOF {
			return &sf, nil
		}
		return nil, fmt.Errorf("entity: decode seed yaml: %w", err)
	}
	return &sf, nil
}

// ImportSeedFile imports every seed of sf into store.
// Returns the number of entities created before any error.
func ImportSeedFile(ctx context.Context, store Store, sf *SeedFile) (int, error) {
	if sf == nil {
		return 0, fmt.Errorf("entity: seed file must not be nil")
	}
	return store.Import(ctx, sf.Seeds)
}

// SampleSeeds returns the two entities a fresh sandbox starts with.
func SampleSeeds() []Seed {
	return []Seed{
		{
			ID:   "1",
			Name: "Resonance Alpha",
			Blueprint: Blueprint{
				EmotionalVector:   []float64{0.8, 0.3, 0.9},
				LogicLoops:        []string{"reflection", "synthesis"},
				TemporalStructure: TemporalSpiral,
				ResonanceFreq:     432,
				MemoryStability:   0.7,
			},
			Position: &Position{X: 200, Y: 150},
		},
		{
			ID:   "2",
			Name: "Echo Prime",
			Blueprint: Blueprint{
				EmotionalVector:   []float64{0.2, 0.9, 0.4},
				LogicLoops:        []string{"recursion", "emergence"},
				TemporalStructure: TemporalFractal,
				ResonanceFreq:     528,
				MemoryStability:   0.9,
			},
			Position: &Position{X: 400, Y: 250},
		},
	}
}
