package render

import (
	"math"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/MrWong99/soulsync/internal/entity"
)

// Drawing constants in CSS pixels.
const (
	EdgeWidth      = 2.0
	GlowRadius     = 40.0
	CoreRadius     = 12.0
	SelectedRadius = 15.0
	SelectedColor  = "#ffffff"
	RingWidth      = 2.0
	PulseBase      = 20.0
	PulseAmplitude = 5.0
)

// EdgeDash is the dash pattern of interaction edges.
var EdgeDash = []float64{5, 10}

// Paint renders scene onto a surface of the given size at time now.
//
// Operations are emitted in a fixed order: one clear, then every
// interaction edge in log order, then each entity's glow and core in
// creation order, then (when active) one pulse ring per entity. Edges whose
// endpoints do not resolve are skipped.
func Paint(scene Scene, size Size, now time.Time) Frame {
	ops := make([]Op, 0, 1+len(scene.Interactions)+3*len(scene.Entities))
	ops = append(ops, Op{Kind: OpClear})

	positions := make(map[string]entity.Position, len(scene.Entities))
	for _, e := range scene.Entities {
		positions[e.ID] = e.Position
	}

	for _, ix := range scene.Interactions {
		src, ok := positions[ix.SourceID]
		if !ok {
			continue
		}
		dst, ok := positions[ix.TargetID]
		if !ok {
			continue
		}
		ops = append(ops, Op{
			Kind:  OpLine,
			X:     src.X,
			Y:     src.Y,
			X2:    dst.X,
			Y2:    dst.Y,
			Color: WithAlpha(ix.Type.Color(), translucent),
			Width: EdgeWidth,
			Dash:  EdgeDash,
			ID:    ix.ID,
		})
	}

	for _, e := range scene.Entities {
		hue := Hue(e.Blueprint.ResonanceFreq)
		ops = append(ops, Op{
			Kind:  OpGlow,
			X:     e.Position.X,
			Y:     e.Position.Y,
			R:     GlowRadius,
			Color: HSL(hue, 70, 60),
			ID:    e.ID,
		})

		core := Op{Kind: OpCircle, X: e.Position.X, Y: e.Position.Y, R: CoreRadius, Color: HSL(hue, 70, 50), ID: e.ID}
		if e.ID == scene.SelectedID {
			core.R = SelectedRadius
			core.Color = SelectedColor
		}
		ops = append(ops, core)
	}

	if scene.Active {
		for _, e := range scene.Entities {
			ops = append(ops, Op{
				Kind:  OpRing,
				X:     e.Position.X,
				Y:     e.Position.Y,
				R:     PulseRadius(e.ID, now),
				Color: HSLA(Hue(e.Blueprint.ResonanceFreq), 70, 50, translucent),
				Width: RingWidth,
				ID:    e.ID,
			})
		}
	}

	return Frame{
		Version: scene.Version,
		Width:   size.Width,
		Height:  size.Height,
		Time:    now,
		Ops:     ops,
	}
}

// PulseRadius is the radius of an entity's pulse ring at time now. The phase
// is offset by the first UTF-16 code unit of id so that entities pulse out
// of step; a character outside the BMP contributes its high surrogate.
func PulseRadius(id string, now time.Time) float64 {
	var phase float64
	for _, r := range id {
		if hi, _ := utf16.EncodeRune(r); hi != unicode.ReplacementChar {
			r = hi
		}
		phase = float64(r)
		break
	}
	ms := float64(now.UnixMilli())
	return math.Sin(ms/1000+phase)*PulseAmplitude + PulseBase
}
