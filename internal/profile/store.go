// Package profile persists CharacterProfile records: a file-backed store
// over the storage.Adapter abstraction (the default), and an optional
// Postgres-backed store for deployments that want queryable history
// across books.
package profile

import (
	"context"

	"github.com/audiobound/audiobound/pkg/types"
)

// Store provides CRUD access to CharacterProfile records, keyed by book
// name. Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a profile by book name. Returns (nil, nil) if absent.
	Get(ctx context.Context, bookName string) (*types.CharacterProfile, error)

	// Save persists profile under bookName, overwriting any prior version.
	Save(ctx context.Context, bookName string, profile *types.CharacterProfile) error
}

// Merge combines a freshly computed profile with any existing one on disk
// (spec §4.1 step 9): entries for the same canonical name have their line
// counts summed and BookAppearances incremented, percentages recomputed
// against the new total; entries only present in the existing profile are
// kept unchanged.
func Merge(existing, fresh *types.CharacterProfile) *types.CharacterProfile {
	if existing == nil {
		return fresh
	}
	if fresh == nil {
		return existing
	}

	merged := types.NewCharacterProfile(fresh.NarratorVoice)

	for name, e := range existing.Entries {
		copyEntry := *e
		merged.Entries[name] = &copyEntry
	}

	for name, f := range fresh.Entries {
		if prior, ok := merged.Entries[name]; ok {
			prior.Lines += f.Lines
			prior.Voice = f.Voice
			prior.Gender = f.Gender
			prior.Aliases = appendUnique(prior.Aliases, f.Aliases...)
			prior.LastSeenIn = f.LastSeenIn
			prior.BookAppearances++
			prior.UpdatedAt = f.UpdatedAt
		} else {
			copyEntry := *f
			copyEntry.BookAppearances = 1
			merged.Entries[name] = &copyEntry
		}
	}

	merged.TotalLines = 0
	for _, e := range merged.Entries {
		merged.TotalLines += e.Lines
	}
	for _, e := range merged.Entries {
		e.RecomputePercentage(merged.TotalLines)
	}
	return merged
}

func appendUnique(existing []string, fresh ...string) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string(nil), existing...)
	for _, a := range existing {
		seen[a] = true
	}
	for _, a := range fresh {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
