package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/audiobound/audiobound/internal/core"
	"github.com/audiobound/audiobound/internal/tts"
	"github.com/audiobound/audiobound/pkg/types"
)

// SampleRate is the fixed sample rate used throughout the pipeline.
const SampleRate = 24000

// ChunkSource supplies rendered audio bytes by partIndex, or reports it
// missing; the Merger substitutes silence for missing/failed chunks.
type ChunkSource interface {
	Read(partIndex int) ([]byte, error)
}

// Merger concatenates cached chunks into one encoded file per segment.
// Merge is single-threaded per segment; segments run sequentially (spec
// §5), so one Merger instance is reused across all segments of a run.
type Merger struct {
	encoder  *Encoder
	tempBase string
}

// NewMerger returns a Merger using encoder and rooting scoped temp
// directories under tempBase.
func NewMerger(encoder *Encoder, tempBase string) *Merger {
	return &Merger{encoder: encoder, tempBase: tempBase}
}

// MergeSegment performs the full §4.4 procedure for one segment: generate
// silence, stage chunks into a scoped vfs, build the concat list and
// filter chain, invoke ffmpeg, and copy the result to outputDir.
func (m *Merger) MergeSegment(ctx context.Context, seg types.Segment, partIndices []int, source ChunkSource, failed map[int]bool, settings types.AudioProcessingSettings, outputDir string) error {
	if err := m.encoder.refreshIfNeeded(ctx); err != nil {
		return err
	}

	sc, err := newScope(m.tempBase)
	if err != nil {
		return err
	}
	defer sc.release()

	silenceName := "silence.pcm"
	if err := m.writeSilenceClip(ctx, sc, silenceName, settings.SilenceGapMs); err != nil {
		m.encoder.Terminate()
		return err
	}

	concatPath, err := m.stageChunksAndConcatList(sc, partIndices, source, failed, silenceName)
	if err != nil {
		m.encoder.Terminate()
		return err
	}

	filterChain := BuildFilterChain(FilterSettings{
		SilenceRemoval: settings.SilenceRemoval,
		Normalization:  settings.Normalization,
		DeEss:          settings.DeEss,
		EQ:             settings.EQ,
		Compressor:     settings.Compressor,
		FadeIn:         settings.FadeIn,
		StereoWidth:    settings.StereoWidth,
	})

	outputName := "output.opus"
	args := m.buildEncodeArgs(concatPath, filterChain, settings, sc.path(outputName))

	if err := m.encoder.run(ctx, args); err != nil {
		m.encoder.Terminate()
		return fmt.Errorf("audio: merge segment %q: %w", seg.Label, err)
	}

	if err := m.copyToOutput(sc.path(outputName), outputDir, seg.Label); err != nil {
		return err
	}

	return nil
}

func (m *Merger) writeSilenceClip(ctx context.Context, sc *scope, name string, gapMs int) error {
	if err := m.encoder.Load(ctx); err != nil {
		return err
	}
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", SampleRate),
		"-t", fmt.Sprintf("%.3f", float64(gapMs)/1000.0),
		sc.path(name),
	}
	return m.encoder.run(ctx, args)
}

// stageChunksAndConcatList writes every available chunk into the scope
// with deterministic names and returns the path to a concat-demuxer list
// file alternating chunk, silence, chunk, silence, ... Missing or failed
// chunk indices are silence instead, keeping the output time-aligned.
func (m *Merger) stageChunksAndConcatList(sc *scope, partIndices []int, source ChunkSource, failed map[int]bool, silenceName string) (string, error) {
	var entries []string
	for i, idx := range partIndices {
		name := fmt.Sprintf("chunk_%06d.bin", idx)
		if failed[idx] {
			entries = append(entries, silenceName)
		} else if data, err := source.Read(idx); err == nil {
			if err := sc.writeFile(name, data); err != nil {
				return "", err
			}
			entries = append(entries, name)
		} else {
			entries = append(entries, silenceName)
		}
		if i < len(partIndices)-1 {
			entries = append(entries, silenceName)
		}
	}

	listPath := sc.path("concat.txt")
	var b []byte
	for _, e := range entries {
		b = append(b, []byte(fmt.Sprintf("file '%s'\n", e))...)
	}
	if err := os.WriteFile(listPath, b, 0o644); err != nil {
		return "", fmt.Errorf("audio: write concat list: %w", err)
	}
	return listPath, nil
}

func (m *Merger) buildEncodeArgs(concatListPath, filterChain string, settings types.AudioProcessingSettings, outPath string) []string {
	channels := "1"
	if settings.StereoWidth {
		channels = "2"
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListPath,
	}
	if filterChain != "" {
		args = append(args, "-af", filterChain)
	}
	args = append(args,
		"-c:a", "libopus",
		"-b:a", fmt.Sprintf("%dk", settings.Opus.MaxBitrate),
		"-minrate", fmt.Sprintf("%dk", settings.Opus.MinBitrate),
		"-compression_level", fmt.Sprintf("%d", settings.Opus.CompressionLevel),
		"-vbr", "on",
		"-ac", channels,
		"-ar", fmt.Sprintf("%d", SampleRate),
		outPath,
	)
	return args
}

func (m *Merger) copyToOutput(srcPath, outputDir, label string) error {
	dir := filepath.Join(outputDir, label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.FileSystemPermission{Path: dir, Err: err}
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("audio: read encoded output: %w", err)
	}
	dest := filepath.Join(dir, label+".opus")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return core.FileSystemPermission{Path: dest, Err: err}
	}
	return nil
}

// ChunkCacheSource adapts *tts.ChunkCache to the ChunkSource interface.
type ChunkCacheSource struct {
	Cache *tts.ChunkCache
}

// Read implements ChunkSource.
func (s ChunkCacheSource) Read(partIndex int) ([]byte, error) {
	return s.Cache.Read(partIndex)
}
