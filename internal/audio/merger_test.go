package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/pkg/types"
)

func TestBuildFilterChainFixedOrder(t *testing.T) {
	chain := BuildFilterChain(FilterSettings{
		Normalization: true,
		FadeIn:        true,
		EQ:            true,
	})
	assert.Equal(t, "loudnorm=I=-16:TP=-1.5:LRA=11,equalizer=f=3000:t=q:w=1:g=-3,afade=t=in:st=0:d=1", chain)
}

func TestBuildFilterChainEmptyWhenAllDisabled(t *testing.T) {
	assert.Equal(t, "", BuildFilterChain(FilterSettings{}))
}

type mapChunkSource map[int][]byte

func (m mapChunkSource) Read(partIndex int) ([]byte, error) {
	data, ok := m[partIndex]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func TestStageChunksAndConcatListSubstitutesSilenceForMissing(t *testing.T) {
	m := &Merger{}
	sc, err := newScope(t.TempDir())
	require.NoError(t, err)
	defer sc.release()

	source := mapChunkSource{0: []byte("a"), 2: []byte("c")}
	failed := map[int]bool{1: true}

	listPath, err := m.stageChunksAndConcatList(sc, []int{0, 1, 2}, source, failed, "silence.pcm")
	require.NoError(t, err)

	contents, err := os.ReadFile(listPath)
	require.NoError(t, err)

	expected := "file 'chunk_000000.bin'\n" +
		"file 'silence.pcm'\n" +
		"file 'silence.pcm'\n" +
		"file 'silence.pcm'\n" +
		"file 'chunk_000002.bin'\n"
	assert.Equal(t, expected, string(contents))

	assert.FileExists(t, filepath.Join(sc.dir, "chunk_000000.bin"))
	assert.FileExists(t, filepath.Join(sc.dir, "chunk_000002.bin"))
	assert.NoFileExists(t, filepath.Join(sc.dir, "chunk_000001.bin"))
}

func TestBuildEncodeArgsUsesMonoForNarrowStereoWidth(t *testing.T) {
	m := &Merger{}
	settings := types.AudioProcessingSettings{
		Opus: types.OpusSettings{MinBitrate: 24, MaxBitrate: 64, CompressionLevel: 10},
	}
	args := m.buildEncodeArgs("/tmp/concat.txt", "", settings, "/tmp/out.opus")
	assert.Contains(t, args, "-ac")

	acIdx := -1
	for i, a := range args {
		if a == "-ac" {
			acIdx = i
		}
	}
	require.GreaterOrEqual(t, acIdx, 0)
	assert.Equal(t, "1", args[acIdx+1])
}

func TestMergeSegmentEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available on PATH")
	}

	encoder := NewEncoder("")
	merger := NewMerger(encoder, t.TempDir())

	source := mapChunkSource{0: sampleWAV(t)}
	settings := types.AudioProcessingSettings{
		SilenceGapMs: 50,
		Opus:         types.OpusSettings{MinBitrate: 24, MaxBitrate: 64, CompressionLevel: 5},
	}
	outDir := t.TempDir()
	seg := types.Segment{Label: "part-001"}

	err := merger.MergeSegment(context.Background(), seg, []int{0}, source, nil, settings, outDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "part-001", "part-001.opus"))
}

// sampleWAV renders a tiny silent WAV file via ffmpeg so the end-to-end
// test has a real decodable chunk to concatenate.
func sampleWAV(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "anullsrc=r=24000:cl=mono", "-t", "0.1", path)
	require.NoError(t, cmd.Run())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
