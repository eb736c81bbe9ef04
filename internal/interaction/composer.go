package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/soulsync/internal/entity"
)

// Sentinel errors returned by [Composer.Propose].
var (
	// ErrInvalidReference means the source or target id does not resolve to
	// a stored entity.
	ErrInvalidReference = errors.New("interaction: invalid entity reference")

	// ErrSelfReference means source and target are the same entity.
	ErrSelfReference = errors.New("interaction: source and target must differ")

	// ErrUnrecognizedType is returned in strict mode for types outside
	// [Types].
	ErrUnrecognizedType = errors.New("interaction: unrecognized type")
)

// EntityResolver looks entities up by id. [entity.Store] satisfies it.
type EntityResolver interface {
	Get(ctx context.Context, id string) (entity.Entity, error)
}

// Composer validates interaction proposals and appends them to a [Log].
// It is safe for concurrent use; proposals are serialised so that creation
// timestamps in the log never decrease.
type Composer struct {
	mu       sync.Mutex
	entities EntityResolver
	log      Log
	strict   bool
	now      func() time.Time
	newID    func() string
}

// ComposerOption configures a [Composer].
type ComposerOption func(*Composer)

// WithStrictTypes makes Propose reject unrecognised types with
// [ErrUnrecognizedType] instead of recording them with the fallback summary.
func WithStrictTypes(strict bool) ComposerOption {
	return func(c *Composer) { c.strict = strict }
}

// WithClock overrides the wall clock. Intended for tests.
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides the id source. Intended for tests.
func WithIDGenerator(gen func() string) ComposerOption {
	return func(c *Composer) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// NewComposer returns a Composer that resolves references against entities
// and appends to log.
func NewComposer(entities EntityResolver, log Log, opts ...ComposerOption) *Composer {
	c := &Composer{
		entities: entities,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Strict reports whether the composer rejects unrecognised types.
func (c *Composer) Strict() bool { return c.strict }

// Propose validates the triple, derives the summary from t and appends one
// new interaction to the log.
//
// Errors:
//   - [ErrInvalidReference] when either id does not resolve
//   - [ErrSelfReference] when sourceID equals targetID
//   - [ErrUnrecognizedType] for unknown types in strict mode
func (c *Composer) Propose(ctx context.Context, sourceID, targetID string, t Type) (Interaction, error) {
	if err := c.resolve(ctx, "source", sourceID); err != nil {
		return Interaction{}, err
	}
	if err := c.resolve(ctx, "target", targetID); err != nil {
		return Interaction{}, err
	}
	if sourceID == targetID {
		return Interaction{}, fmt.Errorf("interaction: propose %q -> %q: %w", sourceID, targetID, ErrSelfReference)
	}
	if c.strict && !t.Known() {
		return Interaction{}, fmt.Errorf("interaction: propose type %q: %w", t, ErrUnrecognizedType)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	created := c.now()
	if latest := c.log.Latest(); created.Before(latest) {
		created = latest
	}
	ix := Interaction{
		ID:        c.newID(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      t,
		Summary:   t.Summary(),
		CreatedAt: created,
	}
	if err := c.log.Append(ctx, ix); err != nil {
		return Interaction{}, fmt.Errorf("interaction: propose: %w", err)
	}
	return ix, nil
}

func (c *Composer) resolve(ctx context.Context, role, id string) error {
	if id == "" {
		return fmt.Errorf("interaction: %s id is empty: %w", role, ErrInvalidReference)
	}
	if _, err := c.entities.Get(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("interaction: %s %q: %w", role, id, ErrInvalidReference)
		}
		return fmt.Errorf("interaction: resolve %s %q: %w", role, id, err)
	}
	return nil
}
