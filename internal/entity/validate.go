package entity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate checks an [Input] for required fields and value ranges.
//
// Rules:
//   - Name must be non-empty after trimming.
//   - The blueprint must pass [ValidateBlueprint].
func Validate(in Input) error {
	var errs []error

	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if err := ValidateBlueprint(in.Blueprint); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateBlueprint checks every blueprint constraint and returns all
// violations joined into one error.
func ValidateBlueprint(b Blueprint) error {
	var errs []error

	if len(b.EmotionalVector) != EmotionalDimensions {
		errs = append(errs, fmt.Errorf("emotionalVector must have exactly %d values, got %d", EmotionalDimensions, len(b.EmotionalVector)))
	}
	for i, v := range b.EmotionalVector {
		if !within(v, 0, 1) {
			errs = append(errs, fmt.Errorf("emotionalVector[%d] %.2f is out of range [0, 1]", i, v))
		}
	}

	if len(b.LogicLoops) == 0 {
		errs = append(errs, errors.New("logicLoops must not be empty"))
	}
	seen := make(map[string]int, len(b.LogicLoops))
	for i, loop := range b.LogicLoops {
		if strings.TrimSpace(loop) == "" {
			errs = append(errs, fmt.Errorf("logicLoops[%d] must not be empty", i))
			continue
		}
		if prev, ok := seen[loop]; ok {
			errs = append(errs, fmt.Errorf("logicLoops[%d] %q is a duplicate of logicLoops[%d]", i, loop, prev))
			continue
		}
		seen[loop] = i
	}

	if !b.TemporalStructure.IsValid() {
		errs = append(errs, fmt.Errorf("temporalStructure %q is not a recognised structure", b.TemporalStructure))
	}

	if !within(b.ResonanceFreq, MinResonanceFreq, MaxResonanceFreq) {
		errs = append(errs, fmt.Errorf("resonanceFreq %.1f is out of range [%.0f, %.0f]", b.ResonanceFreq, MinResonanceFreq, MaxResonanceFreq))
	}

	if !within(b.MemoryStability, 0, 1) {
		errs = append(errs, fmt.Errorf("memoryStability %.2f is out of range [0, 1]", b.MemoryStability))
	}

	return errors.Join(errs...)
}

// ValidatePosition rejects coordinates that are NaN or infinite.
func ValidatePosition(p Position) error {
	var errs []error
	if !finite(p.X) {
		errs = append(errs, fmt.Errorf("position x %v is not a finite number", p.X))
	}
	if !finite(p.Y) {
		errs = append(errs, fmt.Errorf("position y %v is not a finite number", p.Y))
	}
	return errors.Join(errs...)
}

// within reports whether lo <= v <= hi. NaN is never within a range.
func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
