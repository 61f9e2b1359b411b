package tts

import "context"

// StubSpeaker is an offline Speaker for tests and air-gapped runs: it
// returns a short fixed byte sequence rather than calling out to a
// provider.
type StubSpeaker struct{}

// NewStubSpeaker returns a StubSpeaker.
func NewStubSpeaker() *StubSpeaker { return &StubSpeaker{} }

// Synthesize implements Speaker.
func (StubSpeaker) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte("stub-audio:" + voiceID + ":" + text), nil
}

// Close implements Speaker.
func (StubSpeaker) Close() error { return nil }
