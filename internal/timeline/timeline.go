// Package timeline projects entity creations and interactions into one
// time-ordered feed.
//
// Everything here is a pure function of its inputs. Projections own no state
// and are recomputed whenever either source collection changes.
package timeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
)

// UnknownEntity is the display name of an id that does not resolve.
const UnknownEntity = "Unknown Entity"

// Kind tags what an [Event] wraps.
type Kind string

const (
	KindEntity      Kind = "entity"
	KindInteraction Kind = "interaction"
)

// Event is one timeline entry. Exactly one of Entity and Interaction is set,
// matching Kind.
type Event struct {
	Kind        Kind                     `json:"kind"`
	CreatedAt   time.Time                `json:"created_at"`
	Entity      *entity.Entity           `json:"entity,omitempty"`
	Interaction *interaction.Interaction `json:"interaction,omitempty"`
}

// ID returns the id of the wrapped record.
func (e Event) ID() string {
	switch e.Kind {
	case KindEntity:
		return e.Entity.ID
	case KindInteraction:
		return e.Interaction.ID
	}
	return ""
}

// Project merges entities and interactions into one sequence ordered by
// creation time, newest first. The sort is stable over the concatenation
// entities ++ interactions, so equal timestamps keep entities ahead of
// interactions and each collection's own order.
func Project(entities []entity.Entity, interactions []interaction.Interaction) []Event {
	events := make([]Event, 0, len(entities)+len(interactions))
	for i := range entities {
		e := entities[i]
		events = append(events, Event{Kind: KindEntity, CreatedAt: e.CreatedAt, Entity: &e})
	}
	for i := range interactions {
		ix := interactions[i]
		events = append(events, Event{Kind: KindInteraction, CreatedAt: ix.CreatedAt, Interaction: &ix})
	}
	slices.SortStableFunc(events, func(a, b Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return events
}

// Names is an id to display-name lookup.
type Names map[string]string

// NewNames indexes entities by id.
func NewNames(entities []entity.Entity) Names {
	n := make(Names, len(entities))
	for _, e := range entities {
		n[e.ID] = e.Name
	}
	return n
}

// Name returns the display name of id, or [UnknownEntity].
func (n Names) Name(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return UnknownEntity
}

// FormatAgo renders the age of then relative to now as "Ns ago", "Nm ago"
// or "Nh ago", truncating towards zero. Future times render as "0s ago".
func FormatAgo(then, now time.Time) string {
	seconds := max(int64(now.Sub(then)/time.Second), 0)
	if seconds < 60 {
		return fmt.Sprintf("%ds ago", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return fmt.Sprintf("%dh ago", minutes/60)
}

// Entry is the display form of an [Event] with names resolved and the age
// rendered.
type Entry struct {
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Ago       string    `json:"ago"`

	// Entity events.
	Name              string                   `json:"name,omitempty"`
	TemporalStructure entity.TemporalStructure `json:"temporal_structure,omitempty"`
	ResonanceFreq     float64                  `json:"resonance_freq,omitempty"`

	// Interaction events.
	Type       interaction.Type `json:"type,omitempty"`
	Label      string           `json:"label,omitempty"`
	Color      string           `json:"color,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	SourceID   string           `json:"source_id,omitempty"`
	SourceName string           `json:"source_name,omitempty"`
	TargetID   string           `json:"target_id,omitempty"`
	TargetName string           `json:"target_name,omitempty"`
}

// Describe renders events for display, resolving interaction endpoints
// through names.
func Describe(events []Event, names Names, now time.Time) []Entry {
	out := make([]Entry, 0, len(events))
	for _, ev := range events {
		en := Entry{
			Kind:      ev.Kind,
			ID:        ev.ID(),
			CreatedAt: ev.CreatedAt,
			Ago:       FormatAgo(ev.CreatedAt, now),
		}
		switch ev.Kind {
		case KindEntity:
			en.Name = ev.Entity.Name
			en.TemporalStructure = ev.Entity.Blueprint.TemporalStructure
			en.ResonanceFreq = ev.Entity.Blueprint.ResonanceFreq
		case KindInteraction:
			ix := ev.Interaction
			en.Type = ix.Type
			en.Label = ix.Type.Label()
			en.Color = ix.Type.Color()
			en.Summary = ix.Summary
			en.SourceID, en.SourceName = ix.SourceID, names.Name(ix.SourceID)
			en.TargetID, en.TargetName = ix.TargetID, names.Name(ix.TargetID)
		}
		out = append(out, en)
	}
	return out
}

// Stats counts the events of each kind.
type Stats struct {
	Entities     int `json:"entities"`
	Interactions int `json:"interactions"`
}

// Count tallies events by kind.
func Count(events []Event) Stats {
	var s Stats
	for _, ev := range events {
		switch ev.Kind {
		case KindEntity:
			s.Entities++
		case KindInteraction:
			s.Interactions++
		}
	}
	return s
}

// Limit returns at most n leading events. Non-positive n returns all.
func Limit(events []Event, n int) []Event {
	if n <= 0 {
		return events
	}
	return events[:min(n, len(events))]
}
