package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/pkg/types"
)

func TestHasPronounceableContent(t *testing.T) {
	assert.True(t, HasPronounceableContent("Hello"))
	assert.True(t, HasPronounceableContent("42"))
	assert.False(t, HasPronounceableContent("... ---"))
}

func TestFilterChunksDropsUnpronounceable(t *testing.T) {
	assignments := []types.SpeakerAssignment{
		{SentenceIndex: 0, Text: "Hello there.", VoiceID: "v1"},
		{SentenceIndex: 1, Text: "***", VoiceID: "v1"},
	}
	chunks := FilterChunks(assignments)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].PartIndex)
}

func TestLadderScalesUpAfterFullSuccessfulSample(t *testing.T) {
	settings := types.DefaultLadderSettings()
	settings.SampleSize = 3
	l := NewLadder(settings)

	var workers int
	for i := 0; i < settings.SampleSize; i++ {
		workers, _ = l.Record(TaskResult{Success: true})
	}
	assert.Equal(t, settings.MinWorkers+settings.ScaleUpIncrement, workers)
}

func TestLadderScalesDownOnHardFailure(t *testing.T) {
	settings := types.DefaultLadderSettings()
	l := NewLadder(settings)
	l.current = 6

	workers, changed := l.Record(TaskResult{Success: false, HitRetryCeiling: true})
	assert.True(t, changed)
	assert.Equal(t, 3, workers)
}

type failingSpeaker struct{}

func (failingSpeaker) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return nil, errors.New("boom")
}
func (failingSpeaker) Close() error { return nil }

func TestPoolRunMarksPermanentFailures(t *testing.T) {
	cache := NewChunkCache(t.TempDir())
	pool := NewPool(failingSpeaker{}, cache, types.DefaultLadderSettings())

	failed, err := pool.Run(context.Background(), []Chunk{{PartIndex: 0, Text: "hi", Voice: "v1"}}, 1)
	require.NoError(t, err)
	assert.True(t, failed[0])
}

func TestPoolRunSkipsPreScannedChunks(t *testing.T) {
	dir := t.TempDir()
	cache := NewChunkCache(dir)
	require.NoError(t, cache.Write(0, []byte("already rendered")))

	pool := NewPool(StubSpeaker{}, cache, types.DefaultLadderSettings())
	failed, err := pool.Run(context.Background(), []Chunk{{PartIndex: 0, Text: "hi", Voice: "v1"}}, 3)
	require.NoError(t, err)
	assert.Empty(t, failed)

	data, err := cache.Read(0)
	require.NoError(t, err)
	assert.Equal(t, "already rendered", string(data))
}
