package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/internal/audio"
	"github.com/audiobound/audiobound/internal/core"
	"github.com/audiobound/audiobound/internal/llmclient"
	"github.com/audiobound/audiobound/internal/llmpipeline"
	"github.com/audiobound/audiobound/internal/profile"
	"github.com/audiobound/audiobound/internal/progress"
	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/internal/tts"
	"github.com/audiobound/audiobound/internal/voice"
	"github.com/audiobound/audiobound/pkg/types"
)

func TestValidateInputsRejectsEmptyText(t *testing.T) {
	input := baseInput(t)
	input.Text = "   "
	err := validateInputs(input)
	assert.IsType(t, core.NoContent{}, err)
}

func TestValidateInputsRejectsMissingLLMCreds(t *testing.T) {
	input := baseInput(t)
	input.Merge.APIKey = ""
	err := validateInputs(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge")
}

func TestDeriveSegmentsSplitsOnChapterHeadings(t *testing.T) {
	paragraphs := []string{
		"Chapter 1",
		"Alice walked in.",
		"Chapter 2",
		"Bob said hello.",
	}
	segments := DeriveSegments("book", paragraphs)
	require.Len(t, segments, 2)
	assert.Equal(t, 0, segments[0].FirstSentenceIndex)
	assert.Equal(t, 2, segments[1].FirstSentenceIndex)
}

func TestDeriveSegmentsFallsBackToSingleSegment(t *testing.T) {
	segments := DeriveSegments("book", []string{"Just some prose.", "More prose."})
	require.Len(t, segments, 1)
	assert.Equal(t, "book", segments[0].Label)
}

func TestResolveVoiceIDsAssignsNarratorAndCharacters(t *testing.T) {
	assignments := []types.SpeakerAssignment{
		{Speaker: types.NarratorSpeaker, SentenceIndex: 0},
		{Speaker: "Alice", SentenceIndex: 1},
	}
	voiceMap := map[string]string{"Alice": "en-US, nova"}
	resolveVoiceIDs(assignments, voiceMap, "en-US, onyx")

	assert.Equal(t, "en-US, onyx", assignments[0].VoiceID)
	assert.Equal(t, "en-US, nova", assignments[1].VoiceID)
}

func TestResolveVoiceIDsLeavesNarratorWhenNarratorVoiceEmpty(t *testing.T) {
	assignments := []types.SpeakerAssignment{
		{Speaker: types.NarratorSpeaker, SentenceIndex: 0, VoiceID: "en-US, onyx"},
	}
	resolveVoiceIDs(assignments, map[string]string{}, "")
	assert.Equal(t, "en-US, onyx", assignments[0].VoiceID)
}

func TestCountLinesByCharacterIgnoresNarrator(t *testing.T) {
	assignments := []types.SpeakerAssignment{
		{Speaker: types.NarratorSpeaker},
		{Speaker: "Alice"},
		{Speaker: "Alice"},
		{Speaker: "Bob"},
	}
	counts := countLinesByCharacter(assignments)
	assert.Equal(t, 2, counts["Alice"])
	assert.Equal(t, 1, counts["Bob"])
}

func TestErrorResultMapsCancelledDistinctly(t *testing.T) {
	result := errorResult(core.Cancelled{})
	assert.Equal(t, types.RunCancelled, result.Status)
	assert.Empty(t, result.ErrKind)
}

func TestErrorResultCarriesKindForOtherErrors(t *testing.T) {
	result := errorResult(fmt.Errorf("boom"))
	assert.Equal(t, types.RunError, result.Status)
	assert.Equal(t, "boom", result.Message)
}

// fakeLLMClient answers each stage with a fixed, schema-valid response so
// the full pipeline can run without a real provider.
type fakeLLMClient struct{}

func (fakeLLMClient) Close() error { return nil }

func (fakeLLMClient) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	switch req.SchemaName {
	case types.StageExtract:
		return llmclient.Response{Content: `[{"canonicalName":"Alice","variations":["Alice"],"gender":"female"}]`}, nil
	case types.StageMerge:
		return llmclient.Response{Content: `{"merges":[]}`}, nil
	case types.StageAssign:
		return llmclient.Response{Content: `{"0":"A","1":"A"}`}, nil
	default:
		return llmclient.Response{Content: "{}"}, nil
	}
}

// wavSpeaker is a Speaker stand-in that returns the same tiny, real WAV
// clip for every chunk, so the encoder downstream has something it can
// actually decode (the orchestrator never inspects chunk bytes itself).
type wavSpeaker struct {
	clip []byte
}

func (s wavSpeaker) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return s.clip, nil
}

func (wavSpeaker) Close() error { return nil }

func renderSampleWAV(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "anullsrc=r=24000:cl=mono", "-t", "0.1", path)
	require.NoError(t, cmd.Run())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRunEndToEndWithFakeLLMAndRealEncoder(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available on PATH")
	}

	outputDir := t.TempDir()
	input := baseInput(t)
	input.OutputDir = outputDir
	input.Text = "Narration opens the scene.\n\nAlice waved at the crowd. Bob smiled back."

	adapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)

	deps := Dependencies{
		LLM: llmpipeline.Clients{
			Extract: fakeLLMClient{},
			Merge:   fakeLLMClient{},
			Assign:  fakeLLMClient{},
		},
		Speaker:      wavSpeaker{clip: renderSampleWAV(t)},
		Encoder:      audio.NewEncoder(""),
		Profiles:     profile.NewFileStore(adapter),
		VoiceCatalog: voice.DefaultCatalog(),
	}
	orch := New(deps)
	bus := progress.NewBus()

	result, err := orch.Run(context.Background(), input, bus, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.RunComplete, result.Status)
	assert.FileExists(t, filepath.Join(outputDir, "test-book", "test-book.opus"))
}

func TestRunRejectsInsufficientVoicePool(t *testing.T) {
	input := baseInput(t)
	input.OutputDir = t.TempDir()
	input.Rendering.EnabledVoices = []string{"en-US, alloy"}

	deps := Dependencies{
		LLM: llmpipeline.Clients{
			Extract: fakeLLMClient{},
			Merge:   fakeLLMClient{},
			Assign:  fakeLLMClient{},
		},
		Speaker:      tts.NewStubSpeaker(),
		Encoder:      audio.NewEncoder(""),
		VoiceCatalog: voice.DefaultCatalog(),
	}
	orch := New(deps)
	bus := progress.NewBus()

	_, err := orch.Run(context.Background(), input, bus, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient voices")
}

func baseInput(t *testing.T) types.OrchestratorInput {
	t.Helper()
	creds := types.LLMStageCredentials{APIKey: "test-key", Model: "test-model", Temperature: 0.2, TopP: 1}
	return types.OrchestratorInput{
		Extract:   creds,
		Merge:     creds,
		Assign:    creds,
		UseVoting: false,
		Rendering: types.RenderingSettings{
			NarratorVoice: "en-US, onyx",
			DefaultVoice:  "en-US, onyx",
			LLMThreads:    1,
			TTSThreads:    1,
			EnabledVoices: []string{
				"en-US, alloy", "multi, alloy",
				"en-US, echo", "multi, echo",
				"en-US, nova", "multi, nova",
				"en-US, shimmer", "multi, shimmer",
				"en-US, onyx", "multi, onyx",
			},
		},
		AudioProcessing: types.AudioProcessingSettings{
			SilenceGapMs: 50,
			Opus:         types.OpusSettings{MinBitrate: 16, MaxBitrate: 32, CompressionLevel: 5},
		},
		Ladder:   types.DefaultLadderSettings(),
		Language: "en-US",
		BookName: "test-book",
		Text:     "Alice waved at the crowd.",
	}
}
