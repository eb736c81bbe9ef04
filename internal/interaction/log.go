package interaction

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// ErrDuplicateID is returned by Append when an interaction with the same ID
// is already in the log.
var ErrDuplicateID = errors.New("interaction: duplicate id")

// ErrOutOfOrder is returned by Append when the interaction is older than the
// newest entry in the log.
var ErrOutOfOrder = errors.New("interaction: created_at precedes the latest entry")

// Log is the append-only, ordered Interaction Log.
//
// All implementations must be safe for concurrent use.
type Log interface {
	// Append adds ix to the end of the log. The log never reorders entries:
	// ix.CreatedAt must not precede [Log.Latest].
	Append(ctx context.Context, ix Interaction) error

	// List returns every interaction in append order. The returned slice is
	// a fresh copy.
	List(ctx context.Context) ([]Interaction, error)

	// Latest returns the creation time of the newest entry, or the zero time
	// for an empty log.
	Latest() time.Time

	// Len returns the number of entries.
	Len() int
}

// Compile-time assertion that MemLog satisfies the Log interface.
var _ Log = (*MemLog)(nil)

// MemLog is a thread-safe, in-memory [Log].
type MemLog struct {
	mu      sync.RWMutex
	entries []Interaction
	ids     map[string]struct{}
}

// NewMemLog returns an empty [MemLog].
func NewMemLog() *MemLog {
	return &MemLog{ids: make(map[string]struct{})}
}

// Append implements [Log.Append].
func (l *MemLog) Append(_ context.Context, ix Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.ids[ix.ID]; dup {
		return fmt.Errorf("interaction: append %q: %w", ix.ID, ErrDuplicateID)
	}
	if n := len(l.entries); n > 0 && ix.CreatedAt.Before(l.entries[n-1].CreatedAt) {
		return fmt.Errorf("interaction: append %q: %w", ix.ID, ErrOutOfOrder)
	}
	l.ids[ix.ID] = struct{}{}
	l.entries = append(l.entries, ix)
	return nil
}

// List implements [Log.List].
func (l *MemLog) List(_ context.Context) ([]Interaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries), nil
}

// Latest implements [Log.Latest].
func (l *MemLog) Latest() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return time.Time{}
	}
	return l.entries[len(l.entries)-1].CreatedAt
}

// Len implements [Log.Len].
func (l *MemLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
