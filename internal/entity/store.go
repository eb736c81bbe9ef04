package entity

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

// ErrDuplicateID is returned by Import when a seed pins an ID that is
// already in use.
var ErrDuplicateID = errors.New("entity with that ID already exists")

// ErrInvalid wraps every validation failure returned by Create and Import.
var ErrInvalid = errors.New("entity: invalid input")

// Store is the session's Entity Store. It only grows: there are no update
// or remove operations.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Create validates in, assigns a fresh ID and creation timestamp, places
	// the entity with placer (or the store's default placer when nil), stores
	// it and returns it.
	Create(ctx context.Context, in Input, placer Placer) (Entity, error)

	// Import creates one entity per seed, in order. Seeds with an explicit
	// ID keep it; an ID collision aborts with [ErrDuplicateID].
	// Returns the number of entities created before any error.
	Import(ctx context.Context, seeds []Seed) (int, error)

	// Get retrieves an entity by ID.
	// Returns [ErrNotFound] when no entity with that ID exists.
	Get(ctx context.Context, id string) (Entity, error)

	// List returns all entities in creation order. The returned slice is a
	// fresh copy; the entities themselves must be treated as read-only.
	List(ctx context.Context) ([]Entity, error)

	// Len returns the number of stored entities.
	Len() int
}

// Placer decides where a new entity appears on the canvas.
type Placer interface {
	Place(b Bounds) Position
}

// PlacerFunc adapts a plain function to [Placer].
type PlacerFunc func(b Bounds) Position

// Place implements [Placer].
func (f PlacerFunc) Place(b Bounds) Position { return f(b) }
