// Package tts renders SpeakerAssignment text into cached audio chunks
// using an adaptive-concurrency worker pool (spec §4.3).
package tts

import "context"

// Speaker synthesizes text in a given voice into audio bytes. Adapters
// wrap a concrete TTS provider (an OpenAI-compatible speech endpoint, or
// an offline stub for tests and air-gapped runs).
type Speaker interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
	Close() error
}
