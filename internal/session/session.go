// Package session owns the state of one SoulSync simulation: the entity
// store, the interaction log, the current selection and the active flag.
//
// Every mutation is synchronous and serialised by the session mutex. After
// each mutation the session publishes a new immutable [Snapshot] and bumps
// its version; readers (render loops, timeline views, API handlers) only
// ever see whole snapshots. Subscribers are notified of new versions through
// coalescing channels and read the latest snapshot themselves.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
	"github.com/MrWong99/soulsync/internal/observe"
	"github.com/MrWong99/soulsync/internal/selection"
	"github.com/MrWong99/soulsync/internal/timeline"
)

// Entity origins recorded in metrics and logs.
const (
	OriginREST = "rest"
	OriginMCP  = "mcp"
	OriginSeed = "seed"
)

var (
	// ErrClosed is returned by mutations after [Session.Close].
	ErrClosed = errors.New("session: closed")

	// ErrNoSelection is returned by [Session.Interact] when no entity is
	// selected.
	ErrNoSelection = errors.New("session: no entity selected")
)

// Config holds the dependencies of a [Session]. Zero fields get in-memory
// defaults.
type Config struct {
	// Entities is the entity store. Default: [entity.NewMemStore].
	Entities entity.Store

	// Log is the interaction log. Default: [interaction.NewMemLog].
	Log interaction.Log

	// Resolver performs hit tests. Default: [selection.NewResolver].
	Resolver *selection.Resolver

	// Matcher resolves entity names. Default: [entity.NewNameMatcher].
	Matcher *entity.NameMatcher

	// StrictTypes rejects unrecognised interaction types.
	StrictTypes bool

	// StartActive starts the simulation in the active state.
	StartActive bool

	// Metrics records graph metrics. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Now is the wall clock. Default: [time.Now].
	Now func() time.Time
}

// Session is the explicit context object for one simulation. All exported
// methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	entities   entity.Store
	log        interaction.Log
	composer   *interaction.Composer
	matcher    *entity.NameMatcher
	metrics    *observe.Metrics
	now        func() time.Time
	selectedID string
	active     bool
	version    uint64
	closed     bool

	resolver atomic.Pointer[selection.Resolver]
	snap     atomic.Pointer[Snapshot]

	subMu   sync.Mutex
	subs    map[uint64]chan struct{}
	nextSub uint64
}

// New creates a session and publishes its first snapshot (version 1).
func New(cfg Config) *Session {
	if cfg.Entities == nil {
		cfg.Entities = entity.NewMemStore()
	}
	if cfg.Log == nil {
		cfg.Log = interaction.NewMemLog()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = selection.NewResolver()
	}
	if cfg.Matcher == nil {
		cfg.Matcher = entity.NewNameMatcher()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Session{
		entities: cfg.Entities,
		log:      cfg.Log,
		composer: interaction.NewComposer(cfg.Entities, cfg.Log,
			interaction.WithStrictTypes(cfg.StrictTypes),
			interaction.WithClock(cfg.Now),
		),
		matcher: cfg.Matcher,
		metrics: cfg.Metrics,
		now:     cfg.Now,
		active:  cfg.StartActive,
		subs:    make(map[uint64]chan struct{}),
	}
	s.resolver.Store(cfg.Resolver)

	s.mu.Lock()
	s.publishLocked(context.Background())
	s.mu.Unlock()
	return s
}

// Snapshot returns the latest published snapshot.
func (s *Session) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Version returns the latest published version.
func (s *Session) Version() uint64 {
	return s.snap.Load().Version
}

// Subscribe returns a channel that receives a value whenever a new snapshot
// is published, and a function that ends the subscription. Notifications
// coalesce: a slow subscriber sees at least one signal after the latest
// change, not one per change. The channel is closed when the subscription
// ends or the session closes.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan struct{}, 1)
	if s.subs == nil {
		close(ch)
		return ch, func() {}
	}
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription and rejects further mutations. Reads keep
// returning the last snapshot.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subs = nil
}

// Check reports whether the session accepts mutations. It serves as a
// readiness probe.
func (s *Session) Check(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.snap.Load() == nil {
		return errors.New("session: no snapshot published")
	}
	return nil
}

// SetResolver swaps the hit-test resolver, for example after a config
// reload.
func (s *Session) SetResolver(r *selection.Resolver) {
	if r != nil {
		s.resolver.Store(r)
	}
}

// Resolver returns the current hit-test resolver.
func (s *Session) Resolver() *selection.Resolver {
	return s.resolver.Load()
}

// StrictTypes reports whether unrecognised interaction types are rejected.
func (s *Session) StrictTypes() bool {
	return s.composer.Strict()
}

// CreateEntity validates and stores a new entity. placer may be nil to use
// the store's random placement. origin tags metrics and logs.
func (s *Session) CreateEntity(ctx context.Context, in entity.Input, placer entity.Placer, origin string) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entity.Entity{}, ErrClosed
	}

	e, err := s.entities.Create(ctx, in, placer)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("session: create entity: %w", err)
	}
	s.metrics.RecordEntitiesCreated(ctx, origin, 1)
	slog.Info("entity created", "entity_id", e.ID, "name", e.Name, "origin", origin,
		"x", e.Position.X, "y", e.Position.Y)
	s.publishLocked(ctx)
	return e, nil
}

// ImportSeeds adds seed entities in order and publishes once. It returns
// the number of entities added before any error.
func (s *Session) ImportSeeds(ctx context.Context, seeds []entity.Seed) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	n, err := s.entities.Import(ctx, seeds)
	if n > 0 {
		s.metrics.RecordEntitiesCreated(ctx, OriginSeed, n)
		s.publishLocked(ctx)
	}
	if err != nil {
		return n, fmt.Errorf("session: import seeds: %w", err)
	}
	return n, nil
}

// Entity returns the entity with the given id.
func (s *Session) Entity(ctx context.Context, id string) (entity.Entity, error) {
	e, err := s.entities.Get(ctx, id)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("session: entity %q: %w", id, err)
	}
	return e, nil
}

// FindEntity resolves ref as an entity id first and as a name second.
// Names match exactly, phonetically or fuzzily.
func (s *Session) FindEntity(ref string) (entity.Entity, bool) {
	snap := s.Snapshot()
	for _, e := range snap.Entities {
		if e.ID == ref {
			return e, true
		}
	}
	e, _, ok := s.matcher.Find(snap.Entities, ref)
	return e, ok
}

// EntityName returns the display name of id, or [timeline.UnknownEntity].
func (s *Session) EntityName(id string) string {
	for _, e := range s.Snapshot().Entities {
		if e.ID == id {
			return e.Name
		}
	}
	return timeline.UnknownEntity
}

// Propose appends an interaction from sourceID to targetID. The selection is
// left unchanged.
func (s *Session) Propose(ctx context.Context, sourceID, targetID string, t interaction.Type) (interaction.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return interaction.Interaction{}, ErrClosed
	}
	return s.proposeLocked(ctx, sourceID, targetID, t)
}

// Interact proposes an interaction whose source is the selected entity.
func (s *Session) Interact(ctx context.Context, targetID string, t interaction.Type) (interaction.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return interaction.Interaction{}, ErrClosed
	}
	if s.selectedID == "" {
		s.metrics.RecordRejection(ctx, "no_selection")
		return interaction.Interaction{}, ErrNoSelection
	}
	return s.proposeLocked(ctx, s.selectedID, targetID, t)
}

func (s *Session) proposeLocked(ctx context.Context, sourceID, targetID string, t interaction.Type) (interaction.Interaction, error) {
	ix, err := s.composer.Propose(ctx, sourceID, targetID, t)
	if err != nil {
		reason := rejectionReason(err)
		s.metrics.RecordRejection(ctx, reason)
		slog.Debug("interaction rejected", "source_id", sourceID, "target_id", targetID,
			"type", string(t), "reason", reason, "err", err)
		return interaction.Interaction{}, fmt.Errorf("session: propose: %w", err)
	}
	if !t.Known() {
		slog.Warn("interaction with unrecognised type recorded", "interaction_id", ix.ID, "type", string(t))
	}
	s.metrics.RecordInteraction(ctx, string(t))
	slog.Info("interaction created", "interaction_id", ix.ID, "source_id", sourceID,
		"target_id", targetID, "type", string(t))
	s.publishLocked(ctx)
	return ix, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, interaction.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, interaction.ErrSelfReference):
		return "self_reference"
	case errors.Is(err, interaction.ErrUnrecognizedType):
		return "unrecognized_type"
	default:
		return "internal"
	}
}

// SelectAt hit-tests the pointer coordinate. A hit selects that entity and a
// miss clears the selection. A new snapshot is published only when the
// selection changes.
func (s *Session) SelectAt(ctx context.Context, x, y float64) (entity.Entity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entity.Entity{}, false, ErrClosed
	}

	e, hit := s.resolver.Load().Resolve(s.snap.Load().Entities, x, y)
	s.metrics.RecordSelection(ctx, hit)
	s.setSelectionLocked(ctx, e.ID)
	return e, hit, nil
}

// SelectID selects the entity with the given id.
func (s *Session) SelectID(ctx context.Context, id string) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entity.Entity{}, ErrClosed
	}

	e, err := s.entities.Get(ctx, id)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("session: select %q: %w", id, err)
	}
	s.setSelectionLocked(ctx, e.ID)
	return e, nil
}

// ClearSelection deselects the current entity.
func (s *Session) ClearSelection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.setSelectionLocked(ctx, "")
	return nil
}

func (s *Session) setSelectionLocked(ctx context.Context, id string) {
	if s.selectedID == id {
		return
	}
	s.selectedID = id
	slog.Debug("selection changed", "entity_id", id)
	s.publishLocked(ctx)
}

// SetActive starts or pauses the simulation.
func (s *Session) SetActive(ctx context.Context, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.setActiveLocked(ctx, active)
	return nil
}

// ToggleActive flips the active flag and returns the new value.
func (s *Session) ToggleActive(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	s.setActiveLocked(ctx, !s.active)
	return s.active, nil
}

func (s *Session) setActiveLocked(ctx context.Context, active bool) {
	if s.active == active {
		return
	}
	s.active = active
	slog.Info("simulation state changed", "active", active)
	s.publishLocked(ctx)
}

// Timeline projects the latest snapshot into a newest-first event feed.
func (s *Session) Timeline() []timeline.Event {
	snap := s.Snapshot()
	return timeline.Project(snap.Entities, snap.Interactions)
}

// TimelineEntries returns the display form of the timeline, limited to the
// newest limit events when limit is positive.
func (s *Session) TimelineEntries(limit int) []timeline.Entry {
	snap := s.Snapshot()
	events := timeline.Limit(timeline.Project(snap.Entities, snap.Interactions), limit)
	return timeline.Describe(events, timeline.NewNames(snap.Entities), s.now())
}

// publishLocked stores a new snapshot and notifies subscribers. s.mu must
// be held.
func (s *Session) publishLocked(ctx context.Context) {
	entities, err := s.entities.List(ctx)
	if err != nil {
		slog.Error("session: list entities for snapshot", "err", err)
		return
	}
	interactions, err := s.log.List(ctx)
	if err != nil {
		slog.Error("session: list interactions for snapshot", "err", err)
		return
	}

	s.version++
	s.snap.Store(&Snapshot{
		Version:      s.version,
		Entities:     entities,
		Interactions: interactions,
		SelectedID:   s.selectedID,
		Active:       s.active,
		TakenAt:      s.now(),
	})

	s.subMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.subMu.Unlock()
}
