// Package render turns session scenes into display lists and drives the
// per-surface animation loop.
//
// A [Frame] is a flat list of drawing operations that a thin client (the
// browser canvas) replays verbatim. Painting is a pure function of a [Scene],
// the surface size and the frame time, so it is fully testable without a
// real drawing surface.
//
// A [Loop] owns exactly one outstanding frame callback on a [Scheduler].
// Binding a new scene, resizing or stopping always cancels the outstanding
// callback before anything else is armed.
package render

import (
	"time"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
)

// Scene is the immutable state a loop paints.
type Scene struct {
	// Version identifies the session snapshot the scene was taken from.
	Version uint64

	Entities     []entity.Entity
	Interactions []interaction.Interaction

	// SelectedID is the id of the selected entity, or empty.
	SelectedID string

	// Active enables the pulse rings.
	Active bool
}

// Size is a surface size in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OpKind names a drawing operation.
type OpKind string

const (
	// OpClear clears the whole surface.
	OpClear OpKind = "clear"

	// OpLine strokes a dashed line from (X, Y) to (X2, Y2).
	OpLine OpKind = "line"

	// OpGlow fills a 2R×2R square centred on (X, Y) with a radial gradient
	// from Color at the centre to transparent at radius R.
	OpGlow OpKind = "glow"

	// OpCircle fills a circle of radius R centred on (X, Y).
	OpCircle OpKind = "circle"

	// OpRing strokes a circle of radius R centred on (X, Y).
	OpRing OpKind = "ring"
)

// Op is one drawing operation. Fields not used by Kind are zero.
type Op struct {
	Kind  OpKind    `json:"op"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	X2    float64   `json:"x2,omitempty"`
	Y2    float64   `json:"y2,omitempty"`
	R     float64   `json:"r,omitempty"`
	Color string    `json:"color,omitempty"`
	Width float64   `json:"width,omitempty"`
	Dash  []float64 `json:"dash,omitempty"`

	// ID is the entity or interaction the operation belongs to.
	ID string `json:"id,omitempty"`
}

// Frame is one painted display list.
type Frame struct {
	Seq     uint64    `json:"seq"`
	Version uint64    `json:"version"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Time    time.Time `json:"time"`
	Ops     []Op      `json:"ops"`
}
