// Package namematch provides Jaro-Winkler fuzzy canonical-name matching.
// No other package in this module calls it: the orchestrator keys
// CharacterProfile entries by normalised canonical name, and Extract's
// cross-block merge (promptschema.MergeCharacters) matches canonical names
// exactly, ignoring case.
package namematch

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultThreshold is the minimum Jaro-Winkler score accepted as a match.
const DefaultThreshold = 0.88

// Matcher performs Jaro-Winkler fuzzy matching against a fixed threshold.
// Safe for concurrent use — it is read-only after construction.
type Matcher struct {
	threshold float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) { m.threshold = threshold }
}

// New returns a Matcher with DefaultThreshold unless overridden.
func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match finds the entry in known with the highest Jaro-Winkler similarity
// to candidate, case-insensitive. ok is false if no known entry clears the
// threshold.
func (m *Matcher) Match(candidate string, known []string) (best string, score float64, ok bool) {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	if candidate == "" || len(known) == 0 {
		return "", 0, false
	}

	for _, k := range known {
		s := matchr.JaroWinkler(candidate, strings.ToLower(strings.TrimSpace(k)), false)
		if s > score {
			score = s
			best = k
		}
	}
	if score < m.threshold {
		return "", 0, false
	}
	return best, score, true
}
