// Package voice implements the voice allocator (spec §4.5): pool
// construction with dedup, gender-based initial allocation, frequency-based
// reallocation, and the UI-driven randomize-below re-roll.
package voice

import (
	"sort"
	"strings"

	"github.com/audiobound/audiobound/pkg/types"
)

// Meta describes one enabled voice before pool construction.
type Meta struct {
	ID           string       `yaml:"id"`
	Locale       string       `yaml:"locale"`
	BaseName     string       `yaml:"base_name"`
	Multilingual bool         `yaml:"multilingual"`
	Gender       types.Gender `yaml:"gender"`
}

// Dedup collapses native/multilingual variant pairs (same BaseName) to a
// single representative: prefer the one whose locale matches bookLanguage;
// among ties, prefer the non-multilingual variant.
func Dedup(voices []Meta, bookLanguage string) []Meta {
	order := make([]string, 0)
	byBase := make(map[string][]Meta)
	for _, v := range voices {
		key := v.BaseName
		if key == "" {
			key = v.ID
		}
		if _, ok := byBase[key]; !ok {
			order = append(order, key)
		}
		byBase[key] = append(byBase[key], v)
	}

	deduped := make([]Meta, 0, len(order))
	for _, key := range order {
		group := byBase[key]
		if len(group) == 1 {
			deduped = append(deduped, group[0])
			continue
		}
		deduped = append(deduped, pickRepresentative(group, bookLanguage))
	}
	return deduped
}

func pickRepresentative(group []Meta, bookLanguage string) Meta {
	best := group[0]
	bestScore := representativeScore(best, bookLanguage)
	for _, v := range group[1:] {
		score := representativeScore(v, bookLanguage)
		if score > bestScore {
			best, bestScore = v, score
		}
	}
	return best
}

// representativeScore ranks a variant higher when its locale matches the
// book language, and higher still when it is not the multilingual variant.
func representativeScore(v Meta, bookLanguage string) int {
	score := 0
	if strings.EqualFold(v.Locale, bookLanguage) {
		score += 2
	}
	if !v.Multilingual {
		score += 1
	}
	return score
}

// BuildPool orders deduped voices native-non-multilingual first, then
// multilingual-matching-book-language, then foreign multilingual, and
// splits the result into the VoicePool's male/female lists.
func BuildPool(deduped []Meta, bookLanguage string) types.VoicePool {
	sorted := make([]Meta, len(deduped))
	copy(sorted, deduped)
	sort.SliceStable(sorted, func(i, j int) bool {
		return poolRank(sorted[i], bookLanguage) < poolRank(sorted[j], bookLanguage)
	})

	var pool types.VoicePool
	for _, v := range sorted {
		switch v.Gender {
		case types.GenderFemale:
			pool.Female = append(pool.Female, v.ID)
		default:
			pool.Male = append(pool.Male, v.ID)
		}
	}
	return pool
}

// poolRank implements the fixed pool ordering: native non-multilingual (0),
// multilingual matching book language (1), foreign multilingual (2).
func poolRank(v Meta, bookLanguage string) int {
	matches := strings.EqualFold(v.Locale, bookLanguage)
	switch {
	case !v.Multilingual && matches:
		return 0
	case v.Multilingual && matches:
		return 1
	case v.Multilingual && !matches:
		return 2
	default:
		return 3
	}
}
