package tts

import (
	"fmt"
	"os"
	"path/filepath"
)

// ChunkFilename returns the _temp_work-relative filename for partIndex.
func ChunkFilename(partIndex int) string {
	return fmt.Sprintf("chunk_%06d.bin", partIndex)
}

// ChunkCache is the disk-backed store of rendered TTS chunks under
// <workDir>/chunk_NNNNNN.bin. A non-empty file means "rendered" (spec §3).
type ChunkCache struct {
	dir string
}

// NewChunkCache returns a ChunkCache rooted at workDir.
func NewChunkCache(workDir string) *ChunkCache {
	return &ChunkCache{dir: workDir}
}

// Path returns the on-disk path for partIndex.
func (c *ChunkCache) Path(partIndex int) string {
	return filepath.Join(c.dir, ChunkFilename(partIndex))
}

// Done reports whether partIndex already has a non-empty cached chunk.
func (c *ChunkCache) Done(partIndex int) bool {
	info, err := os.Stat(c.Path(partIndex))
	return err == nil && info.Size() > 0
}

// PreScan returns the set of partIndex values already rendered among
// candidates, per spec §4.3's pre-scan step.
func (c *ChunkCache) PreScan(candidates []int) map[int]bool {
	done := make(map[int]bool)
	for _, idx := range candidates {
		if c.Done(idx) {
			done[idx] = true
		}
	}
	return done
}

// Write stores data for partIndex atomically: write to a temp file in the
// same directory, then rename over the final path.
func (c *ChunkCache) Write(partIndex int, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("tts: chunk cache mkdir: %w", err)
	}
	final := c.Path(partIndex)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("tts: chunk cache write temp: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("tts: chunk cache rename: %w", err)
	}
	return nil
}

// Read returns the cached bytes for partIndex, or an error if absent.
func (c *ChunkCache) Read(partIndex int) ([]byte, error) {
	return os.ReadFile(c.Path(partIndex))
}
