package entity

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Placement area used by [RandomPlacer]: new entities land in
// [100, 500) × [100, 400) before clamping.
const (
	placeMinX  = 100.0
	placeSpanX = 400.0
	placeMinY  = 100.0
	placeSpanY = 300.0
)

// RandomPlacer scatters entities uniformly over the placement area and clamps
// the result to the canvas bounds. It is safe for concurrent use.
type RandomPlacer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPlacer returns a placer seeded with seed. A zero seed draws one
// from the wall clock.
func NewRandomPlacer(seed uint64) *RandomPlacer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomPlacer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Place implements [Placer].
func (p *RandomPlacer) Place(b Bounds) Position {
	p.mu.Lock()
	x := p.rng.Float64()*placeSpanX + placeMinX
	y := p.rng.Float64()*placeSpanY + placeMinY
	p.mu.Unlock()
	return b.Clamp(Position{X: x, Y: y})
}

// At returns a [Placer] that always places at pos (clamped to the bounds).
func At(pos Position) Placer {
	return PlacerFunc(func(b Bounds) Position { return b.Clamp(pos) })
}
