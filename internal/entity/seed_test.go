package entity_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/soulsync/internal/entity"
)

const validSeedYAML = `
seeds:
  - id: "alpha"
    name: "Resonance Alpha"
    blueprint:
      emotional_vector: [0.8, 0.3, 0.9]
      logic_loops: [reflection, synthesis]
      temporal_structure: spiral
      resonance_freq: 432
      memory_stability: 0.7
    position: {x: 200, y: 150}
  - name: "Drifter"
    blueprint:
      emotional_vector: [0.1, 0.1, 0.1]
      logic_loops: [divergence]
      temporal_structure: quantum
      resonance_freq: 900
      memory_stability: 0.2
`

func TestLoadSeedsFromReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantCount int
	}{
		{name: "valid seeds", input: validSeedYAML, wantCount: 2},
		{name: "empty document", input: "", wantCount: 0},
		{name: "empty list", input: "seeds: []\n", wantCount: 0},
		{name: "unknown key rejected", input: "seeds: []\nextra: true\n", wantErr: true},
		{name: "malformed yaml", input: "seeds: [\n", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sf, err := entity.LoadSeedsFromReader(strings.NewReader(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sf.Seeds) != tc.wantCount {
				t.Fatalf("seeds = %d, want %d", len(sf.Seeds), tc.wantCount)
			}
		})
	}
}

func TestLoadSeedFile_ImportsIntoStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seeds.yaml")
	if err := os.WriteFile(path, []byte(validSeedYAML), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	sf, err := entity.LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}

	ctx := context.Background()
	s := entity.NewMemStore()
	n, err := entity.ImportSeedFile(ctx, s, sf)
	if err != nil {
		t.Fatalf("ImportSeedFile: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d, want 2", n)
	}

	alpha, err := s.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("Get(alpha): %v", err)
	}
	if alpha.Blueprint.TemporalStructure != entity.TemporalSpiral {
		t.Errorf("temporal = %q, want spiral", alpha.Blueprint.TemporalStructure)
	}

	all, _ := s.List(ctx)
	drifter := all[1]
	if drifter.ID == "" || drifter.ID == "alpha" {
		t.Errorf("drifter id = %q, want a generated id", drifter.ID)
	}
	if drifter.Position.X < 100 || drifter.Position.X >= 500 || drifter.Position.Y < 100 || drifter.Position.Y >= 400 {
		t.Errorf("drifter position %+v outside the random placement area", drifter.Position)
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	t.Parallel()
	if _, err := entity.LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportSeedFile_Nil(t *testing.T) {
	t.Parallel()
	if _, err := entity.ImportSeedFile(context.Background(), entity.NewMemStore(), nil); err == nil {
		t.Fatal("expected error for nil seed file")
	}
}

func TestImportSeedFile_InvalidBlueprint(t *testing.T) {
	t.Parallel()
	sf, err := entity.LoadSeedsFromReader(strings.NewReader(`
seeds:
  - name: "Broken"
    blueprint:
      emotional_vector: [0.1, 0.1]
      logic_loops: []
      temporal_structure: sideways
      resonance_freq: 5
      memory_stability: 2
`))
	if err != nil {
		t.Fatalf("LoadSeedsFromReader: %v", err)
	}
	n, err := entity.ImportSeedFile(context.Background(), entity.NewMemStore(), sf)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n != 0 {
		t.Fatalf("imported %d, want 0", n)
	}
}

func TestImportSeedFile_NonFiniteValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "NaN blueprint",
			yaml: `
seeds:
  - name: "Hollow"
    blueprint:
      emotional_vector: [.nan, 0.5, 0.5]
      logic_loops: [reflection]
      temporal_structure: linear
      resonance_freq: .nan
      memory_stability: .nan
`,
		},
		{
			name: "infinite frequency",
			yaml: `
seeds:
  - name: "Shrill"
    blueprint:
      emotional_vector: [0.5, 0.5, 0.5]
      logic_loops: [reflection]
      temporal_structure: linear
      resonance_freq: .inf
      memory_stability: 0.5
`,
		},
		{
			name: "NaN position",
			yaml: `
seeds:
  - name: "Nowhere"
    blueprint:
      emotional_vector: [0.5, 0.5, 0.5]
      logic_loops: [reflection]
      temporal_structure: linear
      resonance_freq: 432
      memory_stability: 0.5
    position: {x: .nan, y: -.inf}
`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sf, err := entity.LoadSeedsFromReader(strings.NewReader(tc.yaml))
			if err != nil {
				t.Fatalf("LoadSeedsFromReader: %v", err)
			}
			store := entity.NewMemStore()
			n, err := entity.ImportSeedFile(context.Background(), store, sf)
			if !errors.Is(err, entity.ErrInvalid) {
				t.Fatalf("ImportSeedFile error = %v, want ErrInvalid", err)
			}
			if n != 0 || store.Len() != 0 {
				t.Fatalf("imported %d (store len %d), want 0", n, store.Len())
			}
			list, err := store.List(context.Background())
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if _, err := json.Marshal(list); err != nil {
				t.Fatalf("json.Marshal(list): %v", err)
			}
		})
	}
}
