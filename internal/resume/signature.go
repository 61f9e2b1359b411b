// Package resume implements the §3/§4.1 resume layer: job-signature
// fingerprinting and pipeline-state persistence, rooted at
// <outdir>/_temp_work. The chunk-cache pre-scan is tts.ChunkCache.PreScan.
package resume

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/audiobound/audiobound/pkg/types"
)

// WorkDirName is the fixed subdirectory name the orchestrator owns
// exclusively for the lifetime of one conversion.
const WorkDirName = "_temp_work"

// ComputeSignature fingerprints the input text plus every codec-affecting
// setting. Two runs with identical text and settings produce an identical
// signature regardless of map iteration order.
func ComputeSignature(text string, audio types.AudioProcessingSettings, rendering types.RenderingSettings) types.JobSignature {
	textSum := sha256.Sum256([]byte(normalizeForHash(text)))

	settingsBlob := canonicalSettingsJSON(audio, rendering)
	settingsSum := sha256.Sum256(settingsBlob)

	return types.JobSignature{
		TextHash:     hex.EncodeToString(textSum[:]),
		SettingsHash: hex.EncodeToString(settingsSum[:]),
	}
}

// normalizeForHash converts CRLF line endings to LF and drops trailing
// newlines, so re-saving a file with a different line ending or final
// newline doesn't spuriously invalidate the cache.
func normalizeForHash(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimRight(text, "\n")
}

// canonicalSettingsJSON marshals only the settings that affect the encoded
// output, with map-free, sorted-field structs so the same settings always
// produce the same bytes.
func canonicalSettingsJSON(audio types.AudioProcessingSettings, rendering types.RenderingSettings) []byte {
	type canonical struct {
		Audio         types.AudioProcessingSettings `json:"audio"`
		NarratorVoice string                        `json:"narrator_voice"`
		DefaultVoice  string                        `json:"default_voice"`
		PitchHz       int                            `json:"pitch_hz"`
		RatePercent   int                            `json:"rate_percent"`
		EnabledVoices []string                       `json:"enabled_voices"`
	}

	enabled := append([]string(nil), rendering.EnabledVoices...)
	sort.Strings(enabled)

	c := canonical{
		Audio:         audio,
		NarratorVoice: rendering.NarratorVoice,
		DefaultVoice:  rendering.DefaultVoice,
		PitchHz:       rendering.PitchHz,
		RatePercent:   rendering.RatePercent,
		EnabledVoices: enabled,
	}

	data, err := json.Marshal(c)
	if err != nil {
		// Marshal of a plain struct of basic types cannot fail.
		panic(fmt.Sprintf("resume: marshal canonical settings: %v", err))
	}
	return data
}
