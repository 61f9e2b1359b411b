package types

import "strings"

// Sentinel voice-map keys for unnamed speakers, keyed by detected or
// inferred gender.
const (
	MaleUnnamed    = "MALE_UNNAMED"
	FemaleUnnamed  = "FEMALE_UNNAMED"
	UnknownUnnamed = "UNKNOWN_UNNAMED"
)

// RareSlotCount is the fixed number of rare-speaker voices reserved by the
// frequency allocator (one male, one female, one unknown bucket member, but
// reserved as a flat count of three regardless of bucket split).
const RareSlotCount = 3

// VoicePool is the disjoint, deduplicated, ordered set of voice ids
// available to the allocator, split by gender.
//
// Invariant at allocator entry: len(Male)+len(Female) >= 5, len(Male) >= 2,
// len(Female) >= 2.
type VoicePool struct {
	Male   []string `json:"male"`
	Female []string `json:"female"`
}

// Size returns the total number of distinct voice ids in the pool.
func (p *VoicePool) Size() int {
	return len(p.Male) + len(p.Female)
}

// Valid reports whether the pool satisfies the allocator-entry minima.
func (p *VoicePool) Valid() bool {
	return p.Size() >= 5 && len(p.Male) >= 2 && len(p.Female) >= 2
}

// VoiceLocale splits an opaque voice id of the form "<locale>, <name>" into
// its two parts. ok is false if the id does not contain the separator.
func VoiceLocale(voiceID string) (locale, name string, ok bool) {
	parts := strings.SplitN(voiceID, ", ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// AllocationResult is the common return shape of both voice-allocation
// functions (voice.AllocateByGender, voice.AllocateByFrequency): every character
// canonical name and variation maps to the same voice id, plus the three
// sentinel keys.
type AllocationResult struct {
	VoiceMap    map[string]string `json:"voice_map"`
	RareVoices  map[Gender]string `json:"rare_voices"`
	UniqueCount int               `json:"unique_count"`
}

// NewAllocationResult returns an empty, initialized AllocationResult.
func NewAllocationResult() *AllocationResult {
	return &AllocationResult{
		VoiceMap:   make(map[string]string),
		RareVoices: make(map[Gender]string),
	}
}
