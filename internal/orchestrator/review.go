package orchestrator

import (
	"context"

	"github.com/audiobound/audiobound/pkg/types"
)

// ReviewFunc pauses the run after the frequency-based voice reallocation
// (spec §4.1 step 8) so a caller can inspect the proposed character/voice
// map and optionally replace it — typically after driving
// voice.RandomizeBelow from a UI re-roll request. Returning a nil map
// leaves the current allocation untouched.
type ReviewFunc func(ctx context.Context, characters []*types.Character, voiceMap map[string]string) (map[string]string, error)

// NoReview is a ReviewFunc that accepts the proposed allocation unchanged,
// for callers that don't expose a review step (e.g. batch/CLI runs).
func NoReview(ctx context.Context, characters []*types.Character, voiceMap map[string]string) (map[string]string, error) {
	return nil, nil
}
