package session

import (
	"time"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
)

// Snapshot is an immutable view of the session at one version. Consumers
// must treat the slices as read-only.
type Snapshot struct {
	// Version increases by one with every published change.
	Version uint64 `json:"version"`

	Entities     []entity.Entity           `json:"entities"`
	Interactions []interaction.Interaction `json:"interactions"`

	// SelectedID is the selected entity, or empty.
	SelectedID string `json:"selected_id,omitempty"`

	// Active reports whether the simulation is running.
	Active bool `json:"active"`

	// TakenAt is when the snapshot was published.
	TakenAt time.Time `json:"taken_at"`
}

// Selected returns the selected entity.
func (s *Snapshot) Selected() (entity.Entity, bool) {
	if s.SelectedID == "" {
		return entity.Entity{}, false
	}
	for _, e := range s.Entities {
		if e.ID == s.SelectedID {
			return e, true
		}
	}
	return entity.Entity{}, false
}
