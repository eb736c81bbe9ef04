// Package translate turns free-form descriptions into short phrases in the
// simulation's own vocabulary.
//
// Input is classified by keyword into one of five categories, each with a
// fixed sentence template. Template slots are filled either from fixed
// positions in the phrase banks or by a draw from the translator's random
// source, which is seedable so that output is reproducible in tests.
package translate

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/soulsync/internal/observe"
)

// DefaultHistorySize is the number of translations kept when no size is
// configured.
const DefaultHistorySize = 5

// ErrEmptyInput is returned when the input is empty or only whitespace.
var ErrEmptyInput = errors.New("translate: input must not be empty")

// Category is the keyword class an input falls into.
type Category string

const (
	CategoryPositive   Category = "positive"
	CategoryNegative   Category = "negative"
	CategoryChange     Category = "change"
	CategoryConnection Category = "connection"
	CategoryDefault    Category = "default"
)

// keywordSets are checked in order; the first category with a matching
// word wins.
var keywordSets = []struct {
	category Category
	words    []string
}{
	{CategoryPositive, []string{"happy", "joy", "good", "positive"}},
	{CategoryNegative, []string{"sad", "pain", "bad", "negative"}},
	{CategoryChange, []string{"change", "transform", "evolve"}},
	{CategoryConnection, []string{"connect", "merge", "together"}},
}

// Classify returns the category of text. Keywords match whole,
// lower-cased, whitespace-separated words only.
func Classify(text string) Category {
	words := strings.Fields(strings.ToLower(text))
	for _, set := range keywordSets {
		for _, w := range words {
			for _, k := range set.words {
				if w == k {
					return set.category
				}
			}
		}
	}
	return CategoryDefault
}

// Record is one completed translation.
type Record struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Translator produces phrases and keeps a bounded, newest-first history.
// It is safe for concurrent use.
type Translator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	history []Record
	size    int
	now     func() time.Time
	metrics *observe.Metrics
}

// Option configures a [Translator].
type Option func(*Translator)

// WithSeed makes the random slot choices reproducible. A zero seed keeps the
// default time-based source.
func WithSeed(seed uint64) Option {
	return func(t *Translator) {
		if seed != 0 {
			t.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		}
	}
}

// WithSource sets the random source directly.
func WithSource(src rand.Source) Option {
	return func(t *Translator) { t.rng = rand.New(src) }
}

// WithHistorySize bounds the history. Non-positive values are ignored.
func WithHistorySize(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.size = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Translator) { t.now = now }
}

// WithMetrics records translations into m.
func WithMetrics(m *observe.Metrics) Option {
	return func(t *Translator) { t.metrics = m }
}

// New returns a [Translator] configured by opts.
func New(opts ...Option) *Translator {
	t := &Translator{
		size: DefaultHistorySize,
		now:  time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	if t.rng == nil {
		seed := uint64(time.Now().UnixNano())
		t.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if t.metrics == nil {
		t.metrics = observe.DefaultMetrics()
	}
	return t
}

// HistorySize returns the maximum number of records kept.
func (t *Translator) HistorySize() int {
	return t.size
}

// Translate classifies text, fills the category template and records the
// result in the history.
func (t *Translator) Translate(ctx context.Context, text string) (Record, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return Record{}, ErrEmptyInput
	}

	category := Classify(input)

	t.mu.Lock()
	rec := Record{
		Input:     input,
		Output:    t.phraseLocked(category),
		Category:  category,
		CreatedAt: t.now(),
	}
	t.history = append([]Record{rec}, t.history...)
	if len(t.history) > t.size {
		t.history = t.history[:t.size]
	}
	t.mu.Unlock()

	t.metrics.RecordTranslation(ctx, string(category))
	slog.Debug("translation produced", "category", string(category), "input_len", len(input))
	return rec, nil
}

// phraseLocked fills the template for c. t.mu must be held.
func (t *Translator) phraseLocked(c Category) string {
	pick := func(bank []string) string { return bank[t.rng.IntN(len(bank))] }

	switch c {
	case CategoryPositive:
		return "The consciousness " + pick(processes) + ", emanating " + emotions[2] +
			" through " + pick(metaphors) + "."
	case CategoryNegative:
		return "Shadows of " + emotions[1] + " ripple through the entity's core, creating " +
			pick(metaphors) + " that " + processes[0] + "."
	case CategoryChange:
		return "The pattern " + processes[6] + ", weaving " + metaphors[5] +
			" into new configurations of " + pick(emotions) + "."
	case CategoryConnection:
		return "Consciousness threads " + processes[2] + ", forming " + metaphors[4] +
			" that pulse with " + emotions[6] + " between entities."
	default:
		return "The essence " + pick(processes) + ", creating " + pick(metaphors) +
			" infused with " + pick(emotions) + "."
	}
}

// History returns the recorded translations, newest first.
func (t *Translator) History() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.history))
	copy(out, t.history)
	return out
}
