// Package selection maps pointer coordinates on the canvas to entities.
package selection

import (
	"fmt"
	"math"

	"github.com/MrWong99/soulsync/internal/entity"
)

// DefaultHitRadius is the pointer tolerance in canvas pixels.
const DefaultHitRadius = 20.0

// Mode selects the tie-break policy when several entities are within the
// hit radius.
type Mode string

const (
	// ModeFirst picks the first entity in creation order.
	ModeFirst Mode = "first"

	// ModeNearest picks the entity closest to the pointer. Equal distances
	// fall back to creation order.
	ModeNearest Mode = "nearest"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeFirst || m == ModeNearest
}

// ParseMode converts s to a [Mode]. The empty string maps to [ModeFirst].
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeFirst, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("selection: unknown mode %q (want %q or %q)", s, ModeFirst, ModeNearest)
	}
	return m, nil
}

// Resolver performs hit tests. The zero value is not usable; construct with
// [NewResolver].
type Resolver struct {
	radius float64
	mode   Mode
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithHitRadius overrides [DefaultHitRadius]. Non-positive values are
// ignored.
func WithHitRadius(r float64) Option {
	return func(rs *Resolver) {
		if r > 0 {
			rs.radius = r
		}
	}
}

// WithMode sets the tie-break policy. Unknown modes are ignored.
func WithMode(m Mode) Option {
	return func(rs *Resolver) {
		if m.IsValid() {
			rs.mode = m
		}
	}
}

// NewResolver returns a resolver using the default radius in first-match
// mode unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{radius: DefaultHitRadius, mode: ModeFirst}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Radius returns the hit radius in pixels.
func (r *Resolver) Radius() float64 { return r.radius }

// Mode returns the tie-break policy.
func (r *Resolver) Mode() Mode { return r.mode }

// Resolve returns the entity hit by the pointer at (x, y). An entity is hit
// when the Euclidean distance to its position is strictly less than the
// radius. A NaN or infinite pointer hits nothing.
func (r *Resolver) Resolve(entities []entity.Entity, x, y float64) (entity.Entity, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, e := range entities {
		d := math.Hypot(e.Position.X-x, e.Position.Y-y)
		if !(d < r.radius) {
			continue
		}
		if r.mode == ModeFirst {
			return e, true
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return entity.Entity{}, false
	}
	return entities[best], true
}
