package promptschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/pkg/types"
)

func TestParseExtractResponseRepairsMissingFields(t *testing.T) {
	raw := `[{"canonicalName":"John","gender":"male"},{"canonicalName":"","gender":"female"},{"canonicalName":"Sarah","variations":["Sarah"],"gender":"bogus"}]`
	characters, result := ParseExtractResponse(raw)
	require.NoError(t, result.Err)
	require.Len(t, characters, 2)
	assert.True(t, result.Repaired)
	assert.Equal(t, 1, result.Dropped)

	assert.Equal(t, "John", characters[0].Canonical)
	assert.Equal(t, []string{"John"}, characters[0].Variations)
	assert.Equal(t, types.GenderUnknown, characters[1].Gender)
}

func TestParseExtractResponseToleratesSurroundingProse(t *testing.T) {
	raw := "Sure, here you go:\n```json\n[{\"canonicalName\":\"Mary\",\"variations\":[\"Mary\"],\"gender\":\"female\"}]\n```"
	characters, result := ParseExtractResponse(raw)
	require.NoError(t, result.Err)
	require.Len(t, characters, 1)
	assert.Equal(t, "Mary", characters[0].Canonical)
}

func TestMergeCharactersUnionsVariationsAndUpgradesGender(t *testing.T) {
	blockA := []*types.Character{types.NewCharacter("John", types.GenderUnknown)}
	blockB := []*types.Character{types.NewCharacter("john", types.GenderMale, "Johnny")}

	merged := MergeCharacters([][]*types.Character{blockA, blockB})
	require.Len(t, merged, 1)
	assert.Equal(t, types.GenderMale, merged[0].Gender)
	assert.ElementsMatch(t, []string{"John", "john", "Johnny"}, merged[0].Variations)
}

func TestParseMergeResponsePrunesOutOfRangeAndDuplicateIndices(t *testing.T) {
	raw := `{"merges": [[0,3],[1,7,9],[0,1]]}`
	groups, result := ParseMergeResponse(raw, 4)
	require.NoError(t, result.Err)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{0}, groups[0][:1])
	assert.True(t, result.Repaired)
}

func TestParseAssignResponseFiltersNumericAndUnknownCodes(t *testing.T) {
	raw := `{"1":"A","2":"99","3":"Z","bad":"A"}`
	valid := map[string]bool{"A": true}
	assignments, result := ParseAssignResponse(raw, 4, valid)
	require.NoError(t, result.Err)
	require.Equal(t, map[int]string{1: "A"}, assignments)
	assert.Equal(t, 3, result.Dropped)
}
