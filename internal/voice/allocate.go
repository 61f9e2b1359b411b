package voice

import (
	"sort"

	"github.com/audiobound/audiobound/pkg/types"
)

// genderCounters tracks the per-gender cursor used to cycle through an
// exhausted pool.
type genderCounters struct {
	male   int
	female int
}

func (c *genderCounters) used(gender types.Gender) int {
	if gender == types.GenderFemale {
		return c.female
	}
	return c.male
}

func (c *genderCounters) next(pool types.VoicePool, gender types.Gender) (string, types.Gender) {
	voices := pool.Male
	bucket := types.GenderMale
	if gender == types.GenderFemale {
		voices = pool.Female
		bucket = types.GenderFemale
	}
	if len(voices) == 0 {
		return "", bucket
	}
	var idx int
	if bucket == types.GenderFemale {
		idx = c.female % len(voices)
		c.female++
	} else {
		idx = c.male % len(voices)
		c.male++
	}
	return voices[idx], bucket
}

// resolveBucket maps a character's gender to a concrete allocation bucket:
// unknown picks whichever gender pool has fewer voices used so far.
func (c *genderCounters) resolveBucket(gender types.Gender) types.Gender {
	if gender == types.GenderMale || gender == types.GenderFemale {
		return gender
	}
	if c.used(types.GenderFemale) < c.used(types.GenderMale) {
		return types.GenderFemale
	}
	return types.GenderMale
}

// AllocateByGender performs the initial, pre-assignment allocation: each
// character in input order gets the first unused voice from its gender
// bucket (unknown picks the less-used bucket), cycling on exhaustion. Three
// more voices are then drawn for the rare sentinels.
func AllocateByGender(characters []*types.Character, pool types.VoicePool) *types.AllocationResult {
	result := types.NewAllocationResult()
	counters := &genderCounters{}
	used := make(map[string]bool)

	for _, c := range characters {
		bucket := counters.resolveBucket(c.Gender)
		voiceID, _ := counters.next(pool, bucket)
		if voiceID == "" {
			continue
		}
		used[voiceID] = true
		for _, name := range c.Variations {
			result.VoiceMap[name] = voiceID
		}
		result.VoiceMap[c.Canonical] = voiceID
	}
	result.UniqueCount = len(used)

	assignRareVoices(result, pool, counters)
	return result
}

// AllocateByFrequency performs the post-assignment reallocation: the
// uniqueSlots = max(0, |pool|-1-3) most-frequent characters (post-dedup
// pool size; ties broken by stable input order, per the resolved Open
// Question in DESIGN.md) each get a unique voice by gender; the rest share
// the three rare voices by gender bucket.
func AllocateByFrequency(characters []*types.Character, lineCounts map[string]int, pool types.VoicePool) *types.AllocationResult {
	result := types.NewAllocationResult()
	ordered := make([]*types.Character, len(characters))
	copy(ordered, characters)
	sort.SliceStable(ordered, func(i, j int) bool {
		return lineCounts[ordered[i].Canonical] > lineCounts[ordered[j].Canonical]
	})

	uniqueSlots := pool.Size() - 1 - types.RareSlotCount
	if uniqueSlots < 0 {
		uniqueSlots = 0
	}

	counters := &genderCounters{}
	used := make(map[string]bool)

	for i, c := range ordered {
		if i >= uniqueSlots {
			break
		}
		bucket := counters.resolveBucket(c.Gender)
		voiceID, _ := counters.next(pool, bucket)
		if voiceID == "" {
			continue
		}
		used[voiceID] = true
		for _, name := range c.Variations {
			result.VoiceMap[name] = voiceID
		}
		result.VoiceMap[c.Canonical] = voiceID
	}
	result.UniqueCount = len(used)

	assignRareVoices(result, pool, counters)

	for i, c := range ordered {
		if i < uniqueSlots {
			continue
		}
		bucket := counters.resolveBucket(c.Gender)
		rare := result.RareVoices[bucket]
		for _, name := range c.Variations {
			result.VoiceMap[name] = rare
		}
		result.VoiceMap[c.Canonical] = rare
	}

	return result
}

// assignRareVoices draws three more voices, continuing the same per-gender
// cursor the caller used for named characters, and records them under the
// three sentinel keys.
func assignRareVoices(result *types.AllocationResult, pool types.VoicePool, counters *genderCounters) {
	maleRare, _ := counters.next(pool, types.GenderMale)
	femaleRare, _ := counters.next(pool, types.GenderFemale)
	unknownBucket := counters.resolveBucket(types.GenderUnknown)
	unknownRare, _ := counters.next(pool, unknownBucket)

	result.VoiceMap[types.MaleUnnamed] = maleRare
	result.VoiceMap[types.FemaleUnnamed] = femaleRare
	result.VoiceMap[types.UnknownUnnamed] = unknownRare
	result.RareVoices[types.GenderMale] = maleRare
	result.RareVoices[types.GenderFemale] = femaleRare
	result.RareVoices[types.GenderUnknown] = unknownRare
}

// RandomizeBelow rebuilds the voice assignment for characters at indices
// k+1..N (0-based, in the same order as characters), keeping indices
// 0..k untouched. The replacement pool excludes voices already used by the
// kept characters and the narrator, and is walked in order starting over
// for each gender on exhaustion.
func RandomizeBelow(characters []*types.Character, existing *types.AllocationResult, narratorVoice string, pool types.VoicePool, k int) *types.AllocationResult {
	result := types.NewAllocationResult()
	result.RareVoices = existing.RareVoices

	excluded := map[string]bool{narratorVoice: true}
	for i := 0; i <= k && i < len(characters); i++ {
		c := characters[i]
		voiceID := existing.VoiceMap[c.Canonical]
		excluded[voiceID] = true
		for _, name := range c.Variations {
			result.VoiceMap[name] = voiceID
		}
		result.VoiceMap[c.Canonical] = voiceID
	}

	filtered := types.VoicePool{
		Male:   filterOut(pool.Male, excluded),
		Female: filterOut(pool.Female, excluded),
	}

	counters := &genderCounters{}
	used := make(map[string]bool)
	for i := k + 1; i < len(characters); i++ {
		c := characters[i]
		bucket := counters.resolveBucket(c.Gender)
		voiceID, _ := counters.next(filtered, bucket)
		if voiceID == "" {
			continue
		}
		used[voiceID] = true
		for _, name := range c.Variations {
			result.VoiceMap[name] = voiceID
		}
		result.VoiceMap[c.Canonical] = voiceID
	}
	result.UniqueCount = len(used)

	for gender, v := range result.RareVoices {
		result.VoiceMap[sentinelKey(gender)] = v
	}
	return result
}

func filterOut(voices []string, excluded map[string]bool) []string {
	out := make([]string, 0, len(voices))
	for _, v := range voices {
		if !excluded[v] {
			out = append(out, v)
		}
	}
	return out
}

func sentinelKey(gender types.Gender) string {
	switch gender {
	case types.GenderMale:
		return types.MaleUnnamed
	case types.GenderFemale:
		return types.FemaleUnnamed
	default:
		return types.UnknownUnnamed
	}
}
