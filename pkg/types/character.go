// Package types holds the data model shared across the conversion pipeline:
// characters, voices, blocks, assignments, and the on-disk resume artefacts.
package types

import "time"

// Gender is the tri-state gender classification used throughout character
// and voice resolution.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// NarratorSpeaker is the literal speaker value used for narration lines, as
// opposed to a character's canonical name.
const NarratorSpeaker = "narrator"

// Character is a speaking entity discovered by the LLM Extract stage.
//
// Invariant: Variations always contains Canonical; Canonical is non-empty.
type Character struct {
	Canonical  string   `json:"canonical"`
	Variations []string `json:"variations"`
	Gender     Gender   `json:"gender"`
}

// HasVariation reports whether name (case-sensitive) is already recorded as
// a variation of this character.
func (c *Character) HasVariation(name string) bool {
	for _, v := range c.Variations {
		if v == name {
			return true
		}
	}
	return false
}

// AddVariation appends name to Variations if not already present.
func (c *Character) AddVariation(name string) {
	if name == "" || c.HasVariation(name) {
		return
	}
	c.Variations = append(c.Variations, name)
}

// MergeFrom unions other's variations into c and upgrades c's gender from
// unknown to a specific value if other has one. It never downgrades a known
// gender.
func (c *Character) MergeFrom(other *Character) {
	for _, v := range other.Variations {
		c.AddVariation(v)
	}
	if c.Gender == GenderUnknown && other.Gender != GenderUnknown {
		c.Gender = other.Gender
	}
}

// NewCharacter builds a Character whose Variations always includes Canonical.
func NewCharacter(canonical string, gender Gender, variations ...string) *Character {
	c := &Character{Canonical: canonical, Gender: gender}
	c.AddVariation(canonical)
	for _, v := range variations {
		c.AddVariation(v)
	}
	return c
}

// CharacterProfile is the versioned, on-disk record of every character ever
// seen across conversion sessions for a book (or a shared voice memory).
//
// Invariant: sum of Entries[*].Lines <= TotalLines.
type CharacterProfile struct {
	Version       int                        `json:"version"`
	NarratorVoice string                     `json:"narrator_voice"`
	TotalLines    int                        `json:"total_lines"`
	Entries       map[string]*CharacterEntry `json:"entries"` // keyed by normalized canonical name
}

// CurrentProfileVersion is the schema version written by this build.
const CurrentProfileVersion = 2

// CharacterEntry is one character's persisted state within a CharacterProfile.
type CharacterEntry struct {
	Canonical       string    `json:"canonical"`
	Voice           string    `json:"voice"`
	Gender          Gender    `json:"gender"`
	Aliases         []string  `json:"aliases"`
	Lines           int       `json:"lines"`
	Percentage      float64   `json:"percentage"`
	LastSeenIn      string    `json:"last_seen_in"`
	BookAppearances int       `json:"book_appearances"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RecomputePercentage sets Percentage = Lines / totalLines * 100, or 0 if
// totalLines is zero.
func (e *CharacterEntry) RecomputePercentage(totalLines int) {
	if totalLines <= 0 {
		e.Percentage = 0
		return
	}
	e.Percentage = float64(e.Lines) / float64(totalLines) * 100
}

// NewCharacterProfile creates an empty profile at the current schema version.
func NewCharacterProfile(narratorVoice string) *CharacterProfile {
	return &CharacterProfile{
		Version:       CurrentProfileVersion,
		NarratorVoice: narratorVoice,
		Entries:       make(map[string]*CharacterEntry),
	}
}
