// Package interaction holds the Interaction Log and the Composer that turns
// a (source, target, type) triple into a new graph edge.
//
// Interactions are directed, typed edges between two entities. The log is
// append-only: edges are never updated or removed while the session lives.
package interaction

import "time"

// Type is an interaction kind. Any string is representable so that lenient
// mode can record forward-compatible values; [Type.Known] reports whether it
// is one of the recognised kinds.
type Type string

const (
	TypeMerge     Type = "merge"
	TypeResist    Type = "resist"
	TypeHarmonize Type = "harmonize"
	TypeFragment  Type = "fragment"
	TypeReflect   Type = "reflect"
)

// Types lists the recognised kinds in picker order.
var Types = []Type{TypeMerge, TypeResist, TypeHarmonize, TypeFragment, TypeReflect}

// FallbackSummary is recorded for unrecognised types.
const FallbackSummary = "Unknown interaction occurred"

// FallbackColor is the edge colour of unrecognised types.
const FallbackColor = "#ffffff"

type typeInfo struct {
	label   string
	color   string
	summary string
}

var typeTable = map[Type]typeInfo{
	TypeMerge:     {"Merge Consciousness", "#10b981", "Consciousness patterns converged into unified resonance field"},
	TypeResist:    {"Resist Pattern", "#ef4444", "Temporal barriers erected, pattern rejection manifested"},
	TypeHarmonize: {"Harmonize Frequency", "#8b5cf6", "Frequencies aligned across dimensional boundaries"},
	TypeFragment:  {"Fragment Reality", "#f59e0b", "Reality shards dispersed through quantum probability"},
	TypeReflect:   {"Reflect Truth", "#06b6d4", "Truth echoes reverberated through memory crystalline"},
}

// Known reports whether t is a recognised interaction kind.
func (t Type) Known() bool {
	_, ok := typeTable[t]
	return ok
}

// Summary returns the fixed phrase for t, or [FallbackSummary].
func (t Type) Summary() string {
	if info, ok := typeTable[t]; ok {
		return info.summary
	}
	return FallbackSummary
}

// Color returns the CSS hex colour used to draw edges of type t.
func (t Type) Color() string {
	if info, ok := typeTable[t]; ok {
		return info.color
	}
	return FallbackColor
}

// Label returns the human-readable picker label of t. Unrecognised types
// are labelled with their raw value.
func (t Type) Label() string {
	if info, ok := typeTable[t]; ok {
		return info.label
	}
	return string(t)
}

// TypeOption describes one entry of the interaction picker.
type TypeOption struct {
	Value Type   `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// TypeOptions returns the picker entries for every recognised type.
func TypeOptions() []TypeOption {
	out := make([]TypeOption, 0, len(Types))
	for _, t := range Types {
		out = append(out, TypeOption{Value: t, Label: t.Label(), Color: t.Color()})
	}
	return out
}

// Interaction is a directed, typed edge between two entities.
type Interaction struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

