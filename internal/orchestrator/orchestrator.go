// Package orchestrator drives one conversion job end to end (spec §4.1):
// validate, resume check, voice pool construction, the LLM sub-pipeline,
// voice allocation, character-profile persistence, sanitisation, TTS
// rendering, and audio merge — publishing progress as it goes and owning
// every externally visible state transition for the job.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/audiobound/audiobound/internal/audio"
	"github.com/audiobound/audiobound/internal/core"
	"github.com/audiobound/audiobound/internal/dictionary"
	"github.com/audiobound/audiobound/internal/llmpipeline"
	"github.com/audiobound/audiobound/internal/profile"
	"github.com/audiobound/audiobound/internal/progress"
	"github.com/audiobound/audiobound/internal/resume"
	"github.com/audiobound/audiobound/internal/sanitize"
	"github.com/audiobound/audiobound/internal/splitter"
	"github.com/audiobound/audiobound/internal/tts"
	"github.com/audiobound/audiobound/internal/voice"
	"github.com/audiobound/audiobound/pkg/types"
)

// Dependencies bundles every external resource a job needs. Construction
// happens once per process; a single Orchestrator runs many jobs over its
// lifetime (one at a time — Run is not safe to call concurrently for
// different jobs sharing an output directory).
type Dependencies struct {
	LLM          llmpipeline.Clients
	Speaker      tts.Speaker
	Encoder      *audio.Encoder
	Profiles     profile.Store
	VoiceCatalog []voice.Meta
	Logger       *slog.Logger
}

// Orchestrator runs conversion jobs against a fixed set of Dependencies.
type Orchestrator struct {
	deps Dependencies
}

// New returns an Orchestrator over deps. A nil Logger falls back to
// slog.Default().
func New(deps Dependencies) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps}
}

// Run executes the full pipeline for input, publishing progress to bus and
// consulting confirmResume/review at the two points spec §4.1 requires a
// caller decision. It returns once the job reaches a terminal state;
// ctx cancellation between phases surfaces as core.Cancelled and leaves
// _temp_work in place for a later resume.
func (o *Orchestrator) Run(ctx context.Context, input types.OrchestratorInput, bus *progress.Bus, confirmResume resume.ConfirmFunc, review ReviewFunc) (types.RunResult, error) {
	log := o.deps.Logger.With("book", input.BookName)
	if bus == nil {
		bus = progress.NewBus()
	}

	if err := validateInputs(input); err != nil {
		log.Warn("input validation failed", "err", err)
		return errorResult(err), err
	}

	store := resume.NewStore(input.OutputDir)
	sig := resume.ComputeSignature(input.Text, input.AudioProcessing, input.Rendering)

	if confirmResume == nil {
		confirmResume = func() (bool, error) { return false, nil }
	}
	decision, err := resume.Resolve(store, sig, confirmResume)
	if err != nil {
		log.Error("resume resolution failed", "err", err)
		return errorResult(err), err
	}
	if err := store.Ensure(); err != nil {
		return errorResult(err), err
	}
	if err := store.SaveSignature(sig); err != nil {
		return errorResult(err), err
	}

	catalog := voice.ResolveEnabled(o.deps.VoiceCatalog, input.Rendering.EnabledVoices)
	pool := voice.BuildPool(voice.Dedup(catalog, input.Language), input.Language)
	if !pool.Valid() {
		err := core.InsufficientVoices{MaleCount: len(pool.Male), FemaleCount: len(pool.Female)}
		return errorResult(err), err
	}

	paragraphs := splitter.SplitParagraphs(input.Text)
	segments := DeriveSegments(input.BookName, paragraphs)
	blocks := splitter.New(0).Blocks(paragraphs)
	logger := llmpipeline.NewStageLogger(store.WorkDir())

	var state *types.PipelineState
	if decision.ShouldResume {
		log.Info("resuming prior run")
		state = decision.PriorState
	} else {
		state, err = o.runLLMPhases(ctx, input, blocks, pool, logger, bus)
		if err != nil {
			return errorResult(err), err
		}
		state.FileNames = segmentLabels(segments)
		if err := store.SavePipelineState(state); err != nil {
			return errorResult(err), err
		}
	}

	if err := checkCancelled(ctx); err != nil {
		return errorResult(err), err
	}

	reallocateByFrequency(state, pool)
	if err := store.SavePipelineState(state); err != nil {
		return errorResult(err), err
	}

	if review == nil {
		review = NoReview
	}
	updatedMap, err := review(ctx, state.Characters, state.CharacterVoiceMap)
	if err != nil {
		return errorResult(err), err
	}
	if updatedMap != nil {
		state.CharacterVoiceMap = updatedMap
		resolveVoiceIDs(state.Assignments, updatedMap, input.Rendering.NarratorVoice)
		if err := store.SavePipelineState(state); err != nil {
			return errorResult(err), err
		}
	}
	bus.Publish(types.ProgressEvent{Stage: types.StageAssign, Current: 1, Total: 1, Message: "voice allocation confirmed"})

	if o.deps.Profiles != nil {
		if err := o.persistProfile(ctx, input, state); err != nil {
			log.Error("character profile persistence failed", "err", err)
		}
	}

	applyTextTransforms(state, input)

	if err := checkCancelled(ctx); err != nil {
		return errorResult(err), err
	}

	failed, err := o.runTTS(ctx, state, input, store, bus)
	if err != nil {
		return errorResult(err), err
	}

	if err := o.mergeSegments(ctx, segments, state, input, store, failed, bus); err != nil {
		return errorResult(err), err
	}

	if err := store.Purge(); err != nil {
		return errorResult(err), err
	}

	log.Info("conversion complete")
	return types.RunResult{Status: types.RunComplete}, nil
}

// runLLMPhases executes Extract, Merge, the initial gender-based
// allocation, and Assign, returning a freshly built PipelineState (spec
// §4.1 steps 4-6). Only called when not resuming.
func (o *Orchestrator) runLLMPhases(ctx context.Context, input types.OrchestratorInput, blocks []types.TextBlock, pool types.VoicePool, logger *llmpipeline.StageLogger, bus *progress.Bus) (*types.PipelineState, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	characters, err := llmpipeline.RunExtractAndMerge(ctx, o.deps.LLM, input, blocks, logger)
	if err != nil {
		return nil, err
	}
	bus.Publish(types.ProgressEvent{Stage: types.StageExtract, Current: len(characters), Total: len(characters), Message: "characters extracted"})

	initial := voice.AllocateByGender(characters, pool)

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	result, err := llmpipeline.RunAssign(ctx, o.deps.LLM, input, blocks, characters, logger)
	if err != nil {
		return nil, err
	}
	resolveVoiceIDs(result.Assignments, initial.VoiceMap, input.Rendering.NarratorVoice)
	bus.Publish(types.ProgressEvent{Stage: types.StageAssign, Current: len(result.Assignments), Total: len(result.Assignments), Message: "lines assigned"})

	state := types.NewPipelineState()
	state.Characters = result.Characters
	state.Assignments = result.Assignments
	state.CharacterVoiceMap = initial.VoiceMap
	return state, nil
}

// reallocateByFrequency applies spec §4.1 step 7: characters are
// re-ranked by actual line count (now known, post-Assign) and remapped
// to unique-then-rare voices accordingly.
func reallocateByFrequency(state *types.PipelineState, pool types.VoicePool) {
	lineCounts := countLinesByCharacter(state.Assignments)
	result := voice.AllocateByFrequency(state.Characters, lineCounts, pool)
	state.CharacterVoiceMap = result.VoiceMap
	resolveVoiceIDs(state.Assignments, result.VoiceMap, "")
}

func countLinesByCharacter(assignments []types.SpeakerAssignment) map[string]int {
	counts := make(map[string]int)
	for _, a := range assignments {
		if a.IsNarrator() {
			continue
		}
		counts[a.Speaker]++
	}
	return counts
}

// resolveVoiceIDs fills in VoiceID for every assignment from voiceMap,
// resolving narrator lines to narratorVoice directly. An empty
// narratorVoice leaves existing narrator VoiceIDs untouched, so the
// frequency-reallocation call (which only remaps characters) doesn't need
// to re-pass it.
func resolveVoiceIDs(assignments []types.SpeakerAssignment, voiceMap map[string]string, narratorVoice string) {
	for i := range assignments {
		a := &assignments[i]
		if a.IsNarrator() {
			if narratorVoice != "" {
				a.VoiceID = narratorVoice
			}
			continue
		}
		if id, ok := voiceMap[a.Speaker]; ok {
			a.VoiceID = id
		}
	}
}

func (o *Orchestrator) persistProfile(ctx context.Context, input types.OrchestratorInput, state *types.PipelineState) error {
	lineCounts := countLinesByCharacter(state.Assignments)
	fresh := types.NewCharacterProfile(input.Rendering.NarratorVoice)
	now := time.Now()
	for _, c := range state.Characters {
		lines := lineCounts[c.Canonical]
		fresh.Entries[normalizeCanonical(c.Canonical)] = &types.CharacterEntry{
			Canonical:       c.Canonical,
			Voice:           state.CharacterVoiceMap[c.Canonical],
			Gender:          c.Gender,
			Aliases:         c.Variations,
			Lines:           lines,
			LastSeenIn:      input.BookName,
			BookAppearances: 1,
			UpdatedAt:       now,
		}
		fresh.TotalLines += lines
	}
	for _, e := range fresh.Entries {
		e.RecomputePercentage(fresh.TotalLines)
	}

	existing, err := o.deps.Profiles.Get(ctx, input.BookName)
	if err != nil {
		return err
	}
	merged := profile.Merge(existing, fresh)
	return o.deps.Profiles.Save(ctx, input.BookName, merged)
}

func normalizeCanonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// applyTextTransforms runs sanitisation and dictionary substitution over
// every assignment's text in place (spec §4.1 step 10). Malformed
// dictionary rules are skipped rather than failing the run — a bad rule
// shouldn't block an otherwise-valid conversion.
func applyTextTransforms(state *types.PipelineState, input types.OrchestratorInput) {
	dict, err := dictionary.Parse(input.DictionaryRules, input.Rendering.LexxRegister)
	if err != nil {
		dict = &dictionary.Dictionary{}
	}
	for i := range state.Assignments {
		text := sanitize.Sanitize(state.Assignments[i].Text)
		state.Assignments[i].Text = dict.Apply(text)
	}
}

func (o *Orchestrator) runTTS(ctx context.Context, state *types.PipelineState, input types.OrchestratorInput, store *resume.Store, bus *progress.Bus) (map[int]bool, error) {
	chunks := tts.FilterChunks(state.Assignments)
	if len(chunks) == 0 {
		return nil, core.NoPronounceableContent{}
	}

	cache := tts.NewChunkCache(store.WorkDir())
	pool := tts.NewPool(o.deps.Speaker, cache, input.Ladder)
	failed, err := pool.Run(ctx, chunks, input.Ladder.PerTaskRetryCap)
	if err != nil {
		return failed, core.Cancelled{}
	}
	bus.Publish(types.ProgressEvent{
		Stage:   types.StageTTS,
		Current: len(chunks) - len(failed),
		Total:   len(chunks),
		Message: "speech rendered",
	})
	return failed, nil
}

func (o *Orchestrator) mergeSegments(ctx context.Context, segments []types.Segment, state *types.PipelineState, input types.OrchestratorInput, store *resume.Store, failed map[int]bool, bus *progress.Bus) error {
	merger := audio.NewMerger(o.deps.Encoder, store.WorkDir())
	source := audio.ChunkCacheSource{Cache: tts.NewChunkCache(store.WorkDir())}
	bounds := segmentBounds(segments, state.Assignments)

	for i, seg := range segments {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		parts := bounds[i]
		sort.Ints(parts)
		if err := o.mergeSegmentWithRetry(ctx, merger, seg, parts, source, failed, input.AudioProcessing, input.OutputDir); err != nil {
			return err
		}
		bus.Publish(types.ProgressEvent{
			Stage:   types.StageMerging,
			Current: i + 1,
			Total:   len(segments),
			Message: fmt.Sprintf("merged %s", seg.Label),
		})
	}
	return nil
}

// mergeSegmentWithRetry applies the error-kind policy for EncoderFatal
// (spec §7): a single retry with a fresh encoder instance, surfaced as
// core.EncoderFatal only if the retry also fails. Errors unrelated to the
// encoder (audio.ErrEncoderFatal) pass through unchanged.
func (o *Orchestrator) mergeSegmentWithRetry(ctx context.Context, merger *audio.Merger, seg types.Segment, parts []int, source audio.ChunkSource, failed map[int]bool, settings types.AudioProcessingSettings, outputDir string) error {
	err := merger.MergeSegment(ctx, seg, parts, source, failed, settings, outputDir)
	if err == nil || !errors.Is(err, audio.ErrEncoderFatal) {
		return err
	}

	if loadErr := o.deps.Encoder.Load(ctx); loadErr != nil {
		return core.EncoderFatal{Cause: err}
	}
	if err := merger.MergeSegment(ctx, seg, parts, source, failed, settings, outputDir); err != nil {
		return core.EncoderFatal{Cause: err}
	}
	return nil
}

func segmentLabels(segments []types.Segment) []string {
	labels := make([]string, len(segments))
	for i, s := range segments {
		labels[i] = s.Label
	}
	return labels
}

func checkCancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return core.Cancelled{}
	}
	return nil
}

func validateInputs(input types.OrchestratorInput) error {
	if strings.TrimSpace(input.Text) == "" {
		return core.NoContent{}
	}
	if input.Extract.APIKey == "" {
		return core.LLMNotConfigured{Stage: types.StageExtract}
	}
	if input.Merge.APIKey == "" {
		return core.LLMNotConfigured{Stage: types.StageMerge}
	}
	if input.Assign.APIKey == "" {
		return core.LLMNotConfigured{Stage: types.StageAssign}
	}
	if input.OutputDir == "" {
		return core.NoDirectory{Path: input.OutputDir}
	}
	if err := ensureWritable(input.OutputDir); err != nil {
		return core.NoDirectory{Path: input.OutputDir, Err: err}
	}
	return nil
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".write_probe")
	if err := os.WriteFile(probe, []byte{}, 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// errorResult maps an error to its terminal RunResult, special-casing
// cancellation (silent/resumable, spec §7) from every other error kind.
func errorResult(err error) types.RunResult {
	if _, ok := err.(core.Cancelled); ok {
		return types.RunResult{Status: types.RunCancelled}
	}
	return types.RunResult{
		Status:  types.RunError,
		ErrKind: fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
}
