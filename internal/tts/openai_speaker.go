package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/audiobound/audiobound/pkg/types"
)

// OpenAISpeaker implements Speaker against an OpenAI-compatible speech
// endpoint. Synthesize sends the name part of a "<locale>, <name>" voice id
// as the provider voice parameter, or the whole id when it has no such
// separator.
type OpenAISpeaker struct {
	client oai.Client
	model  string
	timeout time.Duration
}

// NewOpenAISpeaker constructs an OpenAISpeaker. timeout is the
// configurable per-call TTS timeout (spec §5); apiURL may be empty to use
// the default endpoint.
func NewOpenAISpeaker(apiKey, apiURL, model string, timeout time.Duration) (*OpenAISpeaker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tts: openai api key must not be empty")
	}
	if model == "" {
		model = "tts-1"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout + 5*time.Second}),
	}
	if apiURL != "" {
		opts = append(opts, option.WithBaseURL(apiURL))
	}

	return &OpenAISpeaker{client: oai.NewClient(opts...), model: model, timeout: timeout}, nil
}

// Synthesize implements Speaker.
func (s *OpenAISpeaker) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, name, ok := types.VoiceLocale(voiceID)
	if !ok {
		name = voiceID
	}

	resp, err := s.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model: oai.SpeechModel(s.model),
		Input: text,
		Voice: oai.AudioSpeechNewParamsVoice(name),
	})
	if err != nil {
		return nil, fmt.Errorf("tts: openai speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: openai speech read: %w", err)
	}
	return data, nil
}

// Close implements Speaker. The OpenAI SDK client has no persistent
// connection to release.
func (s *OpenAISpeaker) Close() error { return nil }
