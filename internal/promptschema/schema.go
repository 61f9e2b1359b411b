// Package promptschema builds LLM prompts for the extract/merge/assign
// stages and validates + repairs their structured JSON responses per the
// contract in spec §4.2.
package promptschema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/audiobound/audiobound/pkg/types"
)

// ValidationResult reports what validation/repair did to a raw response.
type ValidationResult struct {
	Repaired bool
	Dropped  int
	Err      error
}

// --- Extract ---------------------------------------------------------------

// rawExtractEntry mirrors the wire shape of one Extract response element.
type rawExtractEntry struct {
	CanonicalName string   `json:"canonicalName"`
	Variations    []string `json:"variations"`
	Gender        string   `json:"gender"`
}

// BuildExtractPrompt builds the system/user prompt pair asking for an array
// of {canonicalName, variations, gender}.
func BuildExtractPrompt(block types.TextBlock, known []string) (system, user string) {
	system = "You identify speaking characters in a manuscript excerpt. " +
		"Respond with a JSON array of objects: " +
		`{"canonicalName": string, "variations": [string], "gender": "male"|"female"|"unknown"}. ` +
		"Return only the JSON array, no commentary."
	var b strings.Builder
	if len(known) > 0 {
		fmt.Fprintf(&b, "Characters already known: %s\n\n", strings.Join(known, ", "))
	}
	b.WriteString("Excerpt:\n\n")
	b.WriteString(strings.Join(block.Paragraphs, "\n\n"))
	user = b.String()
}

// ParseExtractResponse validates and repairs a raw Extract response into a
// list of Characters. Entries with an empty canonical name are dropped.
func ParseExtractResponse(raw string) ([]*types.Character, ValidationResult) {
	var entries []rawExtractEntry
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &entries); err != nil {
		return nil, ValidationResult{Err: fmt.Errorf("extract: %w", err)}
	}

	result := ValidationResult{}
	characters := make([]*types.Character, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.CanonicalName)
		if name == "" {
			result.Dropped++
			continue
		}
		variations := e.Variations
		if len(variations) == 0 {
			variations = []string{name}
			result.Repaired = true
		}
		gender := types.Gender(strings.ToLower(strings.TrimSpace(e.Gender)))
		if gender != types.GenderMale && gender != types.GenderFemale && gender != types.GenderUnknown {
			gender = types.GenderUnknown
			result.Repaired = true
		}
		characters = append(characters, types.NewCharacter(name, gender, variations...))
	}
	return characters, result
}

// MergeCharacters unions the per-block Extract outputs by case-insensitive
// canonical name, upgrading gender from unknown where possible.
func MergeCharacters(blocks [][]*types.Character) []*types.Character {
	order := make([]string, 0)
	byKey := make(map[string]*types.Character)
	for _, chars := range blocks {
		for _, c := range chars {
			key := strings.ToLower(c.Canonical)
			if existing, ok := byKey[key]; ok {
				existing.MergeFrom(c)
				continue
			}
			clone := *c
			clone.Variations = append([]string(nil), c.Variations...)
			byKey[key] = &clone
			order = append(order, key)
		}
	}
	merged := make([]*types.Character, 0, len(order))
	for _, k := range order {
		merged = append(merged, byKey[k])
	}
	return merged
}

// extractJSONArray trims surrounding prose/code fences some models add
// despite instructions, returning the first top-level JSON array found.
func extractJSONArray(raw string) string {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// extractJSONObject is the object-valued counterpart of extractJSONArray.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// --- Merge -------------------------------------------------------------

type rawMergeResponse struct {
	Merges [][]int `json:"merges"`
}

// BuildMergePrompt asks for index-based merge groups over the given
// characters at the given temperature (caller attaches temperature to the
// llmclient.Request; this only builds the text).
func BuildMergePrompt(characters []*types.Character) (system, user string) {
	system = "You deduplicate a list of character names that may refer to the same person. " +
		`Respond with JSON: {"merges": [[i,j,...], ...]} where each inner array lists ` +
		"0-based indices of characters that are the same person. Omit characters with no merge. " +
		"Return only the JSON object, no commentary."
	var b strings.Builder
	for i, c := range characters {
		fmt.Fprintf(&b, "%d: %s (%s) [%s]\n", i, c.Canonical, c.Gender, strings.Join(c.Variations, ", "))
	}
	user = b.String()
}

// ParseMergeResponse validates merge groups: arrays of length >= 2, indices
// in [0,n), with within- and cross-group duplicates pruned (first
// occurrence wins).
func ParseMergeResponse(raw string, n int) ([][]int, ValidationResult) {
	var resp rawMergeResponse
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &resp); err != nil {
		return nil, ValidationResult{Err: fmt.Errorf("merge: %w", err)}
	}

	result := ValidationResult{}
	seen := make(map[int]bool)
	groups := make([][]int, 0, len(resp.Merges))
	for _, g := range resp.Merges {
		if len(g) < 2 {
			result.Dropped++
			continue
		}
		clean := make([]int, 0, len(g))
		for _, idx := range g {
			if idx < 0 || idx >= n || seen[idx] {
				result.Repaired = true
				continue
			}
			seen[idx] = true
			clean = append(clean, idx)
		}
		if len(clean) >= 2 {
			groups = append(groups, clean)
		}
	}
	return groups, result
}

// --- Assign ------------------------------------------------------------

// BuildAssignPrompt asks for a sparse {sentenceIndex: speakerCode} mapping
// over sentences, the block's paragraphs already flattened to per-sentence
// granularity by the caller (spec §4.2: assign resolves speaker per
// sentence, not per paragraph). codes maps every valid speaker code to a
// display label for the prompt body (character canonical names plus the
// three sentinels).
func BuildAssignPrompt(sentences []string, codes map[string]string) (system, user string) {
	system = "You assign each sentence of a manuscript excerpt to its speaker. " +
		`Respond with JSON: {"sentenceIndex": "speakerCode", ...}. ` +
		"Omit narration; unlisted indices default to the narrator. " +
		"Return only the JSON object, no commentary."
	var b strings.Builder
	b.WriteString("Speaker codes:\n")
	for code, label := range codes {
		fmt.Fprintf(&b, "  %s = %s\n", code, label)
	}
	b.WriteString("\nSentences:\n")
	for i, s := range sentences {
		fmt.Fprintf(&b, "%d: %s\n", i, s)
	}
	user = b.String()
}

// ParseAssignResponse validates a sparse {index: code} mapping: keys parse
// as integers in [0, sentenceCount), values must be known codes.
// Numeric-looking values and unknown codes are filtered; truncated/garbled
// entries are dropped.
func ParseAssignResponse(raw string, sentenceCount int, validCodes map[string]bool) (map[int]string, ValidationResult) {
	var rawMap map[string]string
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &rawMap); err != nil {
		return nil, ValidationResult{Err: fmt.Errorf("assign: %w", err)}
	}

	result := ValidationResult{}
	out := make(map[int]string, len(rawMap))
	for k, v := range rawMap {
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || idx < 0 || idx >= sentenceCount {
			result.Dropped++
			continue
		}
		v = strings.TrimSpace(v)
		if _, err := strconv.Atoi(v); err == nil {
			// Numeric-looking values are filtered: a speaker code is never
			// a bare number.
			result.Dropped++
			continue
		}
		if !validCodes[v] {
			result.Dropped++
			continue
		}
		out[idx] = v
	}
	return out, result
}
