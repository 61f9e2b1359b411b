package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/pkg/types"
)

func TestMergeSumsLinesAndIncrementsAppearances(t *testing.T) {
	existing := types.NewCharacterProfile("narrator-voice")
	existing.Entries["alice"] = &types.CharacterEntry{
		Canonical: "Alice", Lines: 10, BookAppearances: 1, Aliases: []string{"Al"},
	}
	existing.TotalLines = 10

	fresh := types.NewCharacterProfile("narrator-voice")
	fresh.Entries["alice"] = &types.CharacterEntry{
		Canonical: "Alice", Lines: 5, Aliases: []string{"Ali"},
	}
	fresh.Entries["bob"] = &types.CharacterEntry{Canonical: "Bob", Lines: 3}
	fresh.TotalLines = 8

	merged := Merge(existing, fresh)

	assert.Equal(t, 18, merged.TotalLines)
	require.Contains(t, merged.Entries, "alice")
	assert.Equal(t, 15, merged.Entries["alice"].Lines)
	assert.Equal(t, 2, merged.Entries["alice"].BookAppearances)
	assert.ElementsMatch(t, []string{"Al", "Ali"}, merged.Entries["alice"].Aliases)

	require.Contains(t, merged.Entries, "bob")
	assert.Equal(t, 1, merged.Entries["bob"].BookAppearances)

	for _, e := range merged.Entries {
		assert.InDelta(t, float64(e.Lines)/18*100, e.Percentage, 0.001)
	}
}

func TestMergeNilExistingReturnsFresh(t *testing.T) {
	fresh := types.NewCharacterProfile("v1")
	merged := Merge(nil, fresh)
	assert.Same(t, fresh, merged)
}

func TestFileStoreRoundTrip(t *testing.T) {
	adapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)
	store := NewFileStore(adapter)
	ctx := context.Background()

	missing, err := store.Get(ctx, "my-book")
	require.NoError(t, err)
	assert.Nil(t, missing)

	profile := types.NewCharacterProfile("en-US, Narrator")
	profile.Entries["alice"] = &types.CharacterEntry{Canonical: "Alice", Lines: 4}
	profile.TotalLines = 4
	require.NoError(t, store.Save(ctx, "my-book", profile))

	loaded, err := store.Get(ctx, "my-book")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "en-US, Narrator", loaded.NarratorVoice)
	assert.Equal(t, 4, loaded.Entries["alice"].Lines)
}
