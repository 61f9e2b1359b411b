package tts

import (
	"context"
	"math/rand"
	"sync"
	"time"
	"unicode"

	"github.com/audiobound/audiobound/pkg/types"
)

// Chunk is one unit of TTS work, produced from the final assignments,
// filtered to those containing at least one letter or digit (spec §4.3).
type Chunk struct {
	PartIndex int
	Text      string
	Voice     string
}

// HasPronounceableContent reports whether text contains at least one
// letter or digit.
func HasPronounceableContent(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// FilterChunks drops assignments with no pronounceable content and maps
// the rest into Chunks keyed by sentence index as partIndex.
func FilterChunks(assignments []types.SpeakerAssignment) []Chunk {
	chunks := make([]Chunk, 0, len(assignments))
	for _, a := range assignments {
		if !HasPronounceableContent(a.Text) {
			continue
		}
		chunks = append(chunks, Chunk{PartIndex: a.SentenceIndex, Text: a.Text, Voice: a.VoiceID})
	}
	return chunks
}

// perTaskBaseBackoff is the starting backoff for a single task's retry
// loop; it grows exponentially up to PerTaskRetryCap attempts with jitter.
const perTaskBaseBackoff = 500 * time.Millisecond

// Pool renders Chunks to the ChunkCache using a Speaker, sizing its
// worker count with a Ladder.
type Pool struct {
	speaker Speaker
	cache   *ChunkCache
	ladder  *Ladder
	sem     *dynamicSemaphore
}

// NewPool constructs a Pool. The semaphore starts at settings.MinWorkers
// and is resized by the ladder as tasks complete.
func NewPool(speaker Speaker, cache *ChunkCache, settings types.LadderSettings) *Pool {
	ladder := NewLadder(settings)
	return &Pool{
		speaker: speaker,
		cache:   cache,
		ladder:  ladder,
		sem:     newDynamicSemaphore(ladder.Current()),
	}
}

// runOutcome accumulates the partIndex values that permanently failed
// (their per-task retry cap was reached). The merger substitutes silence
// at these positions.
type runOutcome struct {
	mu     sync.Mutex
	failed map[int]bool
}

// Run submits every chunk not already cached, scaling worker count via the
// ladder at each task-completion boundary. It returns the set of partIndex
// values that permanently failed.
func (p *Pool) Run(ctx context.Context, chunks []Chunk, retryCap int) (map[int]bool, error) {
	if retryCap <= 0 {
		retryCap = types.DefaultLadderSettings().PerTaskRetryCap
	}

	candidates := make([]int, len(chunks))
	for i, c := range chunks {
		candidates[i] = c.PartIndex
	}
	done := p.cache.PreScan(candidates)

	pending := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if !done[c.PartIndex] {
			pending = append(pending, c)
		}
	}

	outcome := &runOutcome{failed: make(map[int]bool)}
	var wg sync.WaitGroup

	for _, chunk := range pending {
		if err := p.sem.Acquire(ctx); err != nil {
			wg.Wait()
			return outcome.failed, err
		}
		wg.Add(1)
		go func(chunk Chunk) {
			defer wg.Done()
			defer p.sem.Release()
			p.runTask(ctx, chunk, retryCap, outcome)
		}(chunk)
	}
	wg.Wait()

	return outcome.failed, ctx.Err()
}

func (p *Pool) runTask(ctx context.Context, chunk Chunk, retryCap int, outcome *runOutcome) {
	var lastErr error
	hitCeiling := false

	for attempt := 0; attempt <= retryCap; attempt++ {
		if ctx.Err() != nil {
			hitCeiling = true
			break
		}
		audio, err := p.speaker.Synthesize(ctx, chunk.Text, chunk.Voice)
		if err == nil {
			if writeErr := p.cache.Write(chunk.PartIndex, audio); writeErr == nil {
				lastErr = nil
				break
			} else {
				lastErr = writeErr
			}
		} else {
			lastErr = err
		}

		if attempt == retryCap {
			hitCeiling = true
			break
		}
		select {
		case <-ctx.Done():
			hitCeiling = true
		case <-time.After(jitteredBackoff(attempt)):
		}
	}

	success := lastErr == nil
	if !success {
		outcome.mu.Lock()
		outcome.failed[chunk.PartIndex] = true
		outcome.mu.Unlock()
	}

	workers, changed := p.ladder.Record(TaskResult{Success: success, HitRetryCeiling: hitCeiling})
	if changed {
		p.sem.SetCapacity(workers)
	}
}

func jitteredBackoff(attempt int) time.Duration {
	base := perTaskBaseBackoff << attempt
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
