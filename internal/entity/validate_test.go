package entity

import (
	"math"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Input {
		return Input{Name: "Echo Prime", Blueprint: DefaultBlueprint()}
	}

	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr string
	}{
		{name: "default blueprint is valid", mutate: func(*Input) {}},
		{name: "empty name", mutate: func(in *Input) { in.Name = "" }, wantErr: "name must not be empty"},
		{name: "short vector", mutate: func(in *Input) { in.Blueprint.EmotionalVector = []float64{0.1, 0.2} }, wantErr: "exactly 3 values"},
		{name: "vector out of range", mutate: func(in *Input) { in.Blueprint.EmotionalVector[1] = 1.5 }, wantErr: "emotionalVector[1]"},
		{name: "no loops", mutate: func(in *Input) { in.Blueprint.LogicLoops = nil }, wantErr: "logicLoops must not be empty"},
		{name: "duplicate loop", mutate: func(in *Input) { in.Blueprint.LogicLoops = []string{"reflection", "reflection"} }, wantErr: "duplicate"},
		{name: "blank loop", mutate: func(in *Input) { in.Blueprint.LogicLoops = []string{" "} }, wantErr: "logicLoops[0] must not be empty"},
		{name: "unknown temporal", mutate: func(in *Input) { in.Blueprint.TemporalStructure = "sideways" }, wantErr: "temporalStructure"},
		{name: "frequency too low", mutate: func(in *Input) { in.Blueprint.ResonanceFreq = 99 }, wantErr: "resonanceFreq"},
		{name: "frequency too high", mutate: func(in *Input) { in.Blueprint.ResonanceFreq = 1000.5 }, wantErr: "resonanceFreq"},
		{name: "frequency bounds inclusive", mutate: func(in *Input) { in.Blueprint.ResonanceFreq = 1000 }},
		{name: "stability out of range", mutate: func(in *Input) { in.Blueprint.MemoryStability = -0.1 }, wantErr: "memoryStability"},
		{name: "NaN vector component", mutate: func(in *Input) { in.Blueprint.EmotionalVector[0] = math.NaN() }, wantErr: "emotionalVector[0]"},
		{name: "infinite vector component", mutate: func(in *Input) { in.Blueprint.EmotionalVector[2] = math.Inf(1) }, wantErr: "emotionalVector[2]"},
		{name: "NaN frequency", mutate: func(in *Input) { in.Blueprint.ResonanceFreq = math.NaN() }, wantErr: "resonanceFreq"},
		{name: "infinite frequency", mutate: func(in *Input) { in.Blueprint.ResonanceFreq = math.Inf(1) }, wantErr: "resonanceFreq"},
		{name: "NaN stability", mutate: func(in *Input) { in.Blueprint.MemoryStability = math.NaN() }, wantErr: "memoryStability"},
		{name: "negative infinite stability", mutate: func(in *Input) { in.Blueprint.MemoryStability = math.Inf(-1) }, wantErr: "memoryStability"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := valid()
			tc.mutate(&in)
			err := Validate(in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	t.Parallel()
	err := Validate(Input{})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"name", "emotionalVector", "logicLoops", "temporalStructure", "resonanceFreq"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q is missing %q", err, want)
		}
	}
}

func TestBoundsClamp(t *testing.T) {
	t.Parallel()
	b := Bounds{Width: 100, Height: 50}
	tests := []struct {
		in, want Position
	}{
		{Position{X: 10, Y: 10}, Position{X: 10, Y: 10}},
		{Position{X: -5, Y: 60}, Position{X: 0, Y: 50}},
		{Position{X: 150, Y: -1}, Position{X: 100, Y: 0}},
		{Position{X: math.NaN(), Y: math.NaN()}, Position{X: 0, Y: 0}},
		{Position{X: math.Inf(1), Y: math.Inf(-1)}, Position{X: 100, Y: 0}},
	}
	for _, tc := range tests {
		if got := b.Clamp(tc.in); got != tc.want {
			t.Errorf("Clamp(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	if got := (Bounds{}).Clamp(Position{X: -3, Y: 900}); got != (Position{X: -3, Y: 900}) {
		t.Errorf("zero bounds clamped to %+v", got)
	}
}

func TestValidatePosition(t *testing.T) {
	t.Parallel()
	if err := ValidatePosition(Position{X: 200, Y: -5}); err != nil {
		t.Fatalf("finite position rejected: %v", err)
	}
	for _, p := range []Position{
		{X: math.NaN(), Y: 0},
		{X: 0, Y: math.Inf(1)},
		{X: math.Inf(-1), Y: math.NaN()},
	} {
		if err := ValidatePosition(p); err == nil {
			t.Errorf("ValidatePosition(%+v) = nil, want error", p)
		}
	}
}

func TestRandomPlacer_SeededIsDeterministic(t *testing.T) {
	t.Parallel()
	b := Bounds{Width: 600, Height: 400}
	p1 := NewRandomPlacer(42)
	p2 := NewRandomPlacer(42)
	for range 10 {
		a, c := p1.Place(b), p2.Place(b)
		if a != c {
			t.Fatalf("seeded placers diverged: %+v vs %+v", a, c)
		}
		if a.X < 100 || a.X >= 500 || a.Y < 100 || a.Y >= 400 {
			t.Fatalf("position %+v outside placement area", a)
		}
	}
}

func TestRandomPlacer_ClampsToSmallCanvas(t *testing.T) {
	t.Parallel()
	b := Bounds{Width: 120, Height: 120}
	p := NewRandomPlacer(7)
	for range 50 {
		pos := p.Place(b)
		if pos.X > 120 || pos.Y > 120 {
			t.Fatalf("position %+v outside %+v", pos, b)
		}
	}
}
