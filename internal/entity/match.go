package entity

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// NameMatcher resolves free-form entity names (typed by a user or produced by
// an agent) to stored entities.
//
// Resolution runs in three stages:
//
//  1. Exact, case-insensitive name equality.
//  2. Double Metaphone overlap between any token of the query and any token
//     of the entity name, ranked by Jaro-Winkler similarity and accepted
//     above the phonetic threshold.
//  3. Pure Jaro-Winkler similarity above the (higher) fuzzy threshold when no
//     phonetic candidate exists.
//
// A NameMatcher is read-only after construction and safe for concurrent use.
type NameMatcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// MatcherOption configures a [NameMatcher].
type MatcherOption func(*NameMatcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically matching entity. Default: 0.70.
func WithPhoneticThreshold(threshold float64) MatcherOption {
	return func(m *NameMatcher) { m.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for the fallback
// pass. Default: 0.85.
func WithFuzzyThreshold(threshold float64) MatcherOption {
	return func(m *NameMatcher) { m.fuzzyThreshold = threshold }
}

// NewNameMatcher returns a [NameMatcher] with the supplied options.
func NewNameMatcher(opts ...MatcherOption) *NameMatcher {
	m := &NameMatcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Find returns the entity in entities whose name best matches name, its
// similarity score (1 for exact matches) and whether any entity matched.
func (m *NameMatcher) Find(entities []Entity, name string) (Entity, float64, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" || len(entities) == 0 {
		return Entity{}, 0, false
	}

	for _, e := range entities {
		if strings.ToLower(strings.TrimSpace(e.Name)) == query {
			return e, 1, true
		}
	}

	queryTokens := strings.Fields(query)
	queryCodes := codesForTokens(queryTokens)

	var (
		best         Entity
		bestScore    float64
		bestPhonetic bool
		found        bool
	)
	for _, e := range entities {
		nameLower := strings.ToLower(strings.TrimSpace(e.Name))
		if nameLower == "" {
			continue
		}
		nameTokens := strings.Fields(nameLower)
		phonetic := codesOverlap(queryCodes, codesForTokens(nameTokens))
		score := bestJWScore(queryTokens, nameTokens, query, nameLower)

		switch {
		case phonetic && score >= m.phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				best, bestScore, bestPhonetic, found = e, score, true, true
			}
		case !phonetic && !bestPhonetic && score >= m.fuzzyThreshold && score > bestScore:
			best, bestScore, found = e, score, true
		}
	}
	return best, bestScore, found
}

// codesForTokens returns the union of the Double Metaphone codes of tokens.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether a and b share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the maximum Jaro-Winkler similarity over the full strings,
// the space-stripped strings and every token pair.
func bestJWScore(queryTokens, nameTokens []string, queryFull, nameFull string) float64 {
	score := matchr.JaroWinkler(queryFull, nameFull, false)

	if len(queryTokens) > 1 || len(nameTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(queryTokens, ""), strings.Join(nameTokens, ""), false); s > score {
			score = s
		}
	}

	for _, qt := range queryTokens {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(qt, nt, false); s > score {
				score = s
			}
		}
	}
	return score
}

var defaultMatcher = NewNameMatcher()

// FindByName resolves name against entities with the default thresholds.
func FindByName(entities []Entity, name string) (Entity, bool) {
	e, _, ok := defaultMatcher.Find(entities, name)
	return e, ok
}
