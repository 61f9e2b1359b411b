package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/pkg/types"
)

func testPool() types.VoicePool {
	return types.VoicePool{
		Male:   []string{"en-US, Guy", "en-US, Mark", "en-US, Davis"},
		Female: []string{"en-US, Jenny", "en-US, Aria", "en-US, Sara"},
	}
}

func TestAllocateByGenderAssignsDistinctVoicesInOrder(t *testing.T) {
	characters := []*types.Character{
		types.NewCharacter("John", types.GenderMale),
		types.NewCharacter("Sarah", types.GenderFemale),
	}
	result := AllocateByGender(characters, testPool())
	assert.Equal(t, "en-US, Guy", result.VoiceMap["John"])
	assert.Equal(t, "en-US, Jenny", result.VoiceMap["Sarah"])
	assert.NotEmpty(t, result.VoiceMap[types.MaleUnnamed])
	assert.NotEmpty(t, result.VoiceMap[types.FemaleUnnamed])
	assert.NotEmpty(t, result.VoiceMap[types.UnknownUnnamed])
}

func TestAllocateByFrequencyTopSlotsAreUnique(t *testing.T) {
	characters := []*types.Character{
		types.NewCharacter("Low", types.GenderMale),
		types.NewCharacter("High", types.GenderMale),
		types.NewCharacter("Mid", types.GenderMale),
	}
	lineCounts := map[string]int{"Low": 1, "High": 100, "Mid": 50}

	pool := testPool() // size 6, uniqueSlots = 6-1-3 = 2
	result := AllocateByFrequency(characters, lineCounts, pool)

	highVoice := result.VoiceMap["High"]
	midVoice := result.VoiceMap["Mid"]
	lowVoice := result.VoiceMap["Low"]

	require.NotEmpty(t, highVoice)
	require.NotEmpty(t, midVoice)
	assert.NotEqual(t, highVoice, midVoice)
	// Low falls outside uniqueSlots=2 and shares a rare voice.
	assert.Equal(t, result.RareVoices[types.GenderMale], lowVoice)
}

func TestDedupCollapsesVariantPair(t *testing.T) {
	voices := []Meta{
		{ID: "en-US, Guy", Locale: "en-US", BaseName: "Guy", Multilingual: false, Gender: types.GenderMale},
		{ID: "en-US, GuyMultilingual", Locale: "en-US", BaseName: "Guy", Multilingual: true, Gender: types.GenderMale},
	}
	deduped := Dedup(voices, "en-US")
	require.Len(t, deduped, 1)
	assert.Equal(t, "en-US, Guy", deduped[0].ID)
}

func TestRandomizeBelowKeepsPrefixAndExcludesUsedVoices(t *testing.T) {
	characters := []*types.Character{
		types.NewCharacter("A", types.GenderMale),
		types.NewCharacter("B", types.GenderMale),
		types.NewCharacter("C", types.GenderMale),
	}
	pool := testPool()
	initial := AllocateByGender(characters, pool)

	reRolled := RandomizeBelow(characters, initial, "narrator-voice", pool, 0)
	assert.Equal(t, initial.VoiceMap["A"], reRolled.VoiceMap["A"])
	assert.NotEqual(t, initial.VoiceMap["A"], reRolled.VoiceMap["B"])
}
