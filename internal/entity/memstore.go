package entity

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store] that keeps
// entities in creation order.
type MemStore struct {
	mu       sync.RWMutex
	ordered  []Entity
	index    map[string]int
	lastTime time.Time

	bounds Bounds
	placer Placer
	now    func() time.Time
	newID  func() string
}

// Option configures a [MemStore].
type Option func(*MemStore)

// WithBounds sets the canvas bounds positions are clamped to.
func WithBounds(b Bounds) Option {
	return func(s *MemStore) { s.bounds = b }
}

// WithPlacer sets the placer used when Create or Import get none.
func WithPlacer(p Placer) Option {
	return func(s *MemStore) {
		if p != nil {
			s.placer = p
		}
	}
}

// WithClock overrides the creation timestamp source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the ID source. Intended for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewMemStore returns an empty [MemStore]. By default it places entities
// with a clock-seeded [RandomPlacer] and assigns UUIDv4 IDs.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		index:  make(map[string]int),
		bounds: Bounds{Width: 600, Height: 400},
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.placer == nil {
		s.placer = NewRandomPlacer(0)
	}
	return s
}

// SetBounds changes the canvas bounds applied to entities created from now
// on. Stored positions are not moved. Non-positive sizes are ignored.
func (s *MemStore) SetBounds(b Bounds) {
	if b.Width <= 0 || b.Height <= 0 {
		return
	}
	s.mu.Lock()
	s.bounds = b
	s.mu.Unlock()
}

// Bounds returns the current canvas bounds.
func (s *MemStore) Bounds() Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Create implements [Store.Create].
func (s *MemStore) Create(ctx context.Context, in Input, placer Placer) (Entity, error) {
	if err := Validate(in); err != nil {
		return Entity{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, exists := s.index[id]; exists {
		return Entity{}, fmt.Errorf("entity: generated id %q: %w", id, ErrDuplicateID)
	}
	return s.insertLocked(id, in, placer), nil
}

// Import implements [Store.Import].
// The import is best-effort: seeds are added one at a time and the count of
// successfully added entities is returned along with the first error.
func (s *MemStore) Import(ctx context.Context, seeds []Seed) (int, error) {
	count := 0
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := s.importOne(seed); err != nil {
			return count, fmt.Errorf("entity: import at index %d (name %q): %w", count, seed.Name, err)
		}
		count++
	}
	return count, nil
}

func (s *MemStore) importOne(seed Seed) error {
	in := Input{Name: seed.Name, Blueprint: seed.Blueprint}
	if err := Validate(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var placer Placer
	if seed.Position != nil {
		if err := ValidatePosition(*seed.Position); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		placer = At(*seed.Position)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := seed.ID
	if id == "" {
		id = s.newID()
	}
	if _, exists := s.index[id]; exists {
		return ErrDuplicateID
	}
	s.insertLocked(id, in, placer)
	return nil
}

// insertLocked stores a validated entity. s.mu must be held for writing.
func (s *MemStore) insertLocked(id string, in Input, placer Placer) Entity {
	if placer == nil {
		placer = s.placer
	}

	created := s.now()
	if created.Before(s.lastTime) {
		created = s.lastTime
	}
	s.lastTime = created

	e := Entity{
		ID:        id,
		Name:      in.Name,
		Blueprint: in.Blueprint.Clone(),
		Position:  placer.Place(s.bounds),
		CreatedAt: created,
	}
	s.index[id] = len(s.ordered)
	s.ordered = append(s.ordered, e)
	return e
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, id string) (Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Entity{}, ErrNotFound
	}
	return s.ordered[i], nil
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ordered), nil
}

// Len implements [Store.Len].
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}
