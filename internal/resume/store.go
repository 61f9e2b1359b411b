package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/audiobound/audiobound/internal/core"
	"github.com/audiobound/audiobound/pkg/types"
)

const (
	pipelineStateFile = "pipeline_state.json"
	signatureFile     = "job_signature.json"
)

// Store owns _temp_work/pipeline_state.json and _temp_work/job_signature.json
// for the lifetime of one conversion (spec §3 ownership rule). All writes
// are atomic (write-temp, then rename) and pass through a permission-retry
// wrapper around the final rename, per §4.1's "all disk writes pass through
// a permission-retry wrapper".
type Store struct {
	workDir string
}

// NewStore returns a Store rooted at <outdir>/_temp_work.
func NewStore(outputDir string) *Store {
	return &Store{workDir: filepath.Join(outputDir, WorkDirName)}
}

// WorkDir returns the _temp_work path this store owns.
func (s *Store) WorkDir() string {
	return s.workDir
}

// Ensure creates _temp_work if it doesn't already exist.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return core.FileSystemPermission{Path: s.workDir, Err: err}
	}
	return nil
}

// Purge deletes _temp_work entirely, discarding any resume state.
func (s *Store) Purge() error {
	if err := os.RemoveAll(s.workDir); err != nil {
		return core.FileSystemPermission{Path: s.workDir, Err: err}
	}
	return nil
}

// Exists reports whether a prior run left a pipeline state behind.
func (s *Store) Exists() bool {
	_, err := os.Stat(filepath.Join(s.workDir, pipelineStateFile))
	return err == nil
}

// LoadSignature reads the persisted JobSignature, or the zero value if
// none exists yet (first run for this output directory).
func (s *Store) LoadSignature() (types.JobSignature, error) {
	var sig types.JobSignature
	data, err := os.ReadFile(filepath.Join(s.workDir, signatureFile))
	if os.IsNotExist(err) {
		return sig, nil
	}
	if err != nil {
		return sig, fmt.Errorf("resume: read job signature: %w", err)
	}
	if err := json.Unmarshal(data, &sig); err != nil {
		return sig, fmt.Errorf("resume: parse job signature: %w", err)
	}
	return sig, nil
}

// SaveSignature persists sig atomically.
func (s *Store) SaveSignature(sig types.JobSignature) error {
	return s.writeJSON(signatureFile, sig)
}

// LoadPipelineState reads the persisted PipelineState.
func (s *Store) LoadPipelineState() (*types.PipelineState, error) {
	data, err := os.ReadFile(filepath.Join(s.workDir, pipelineStateFile))
	if err != nil {
		return nil, fmt.Errorf("resume: read pipeline state: %w", err)
	}
	state := types.NewPipelineState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("resume: parse pipeline state: %w", err)
	}
	return state, nil
}

// SavePipelineState persists state atomically. Called only between phases,
// never mid-stage (spec §5: "the character/voice map is mutated only
// between phases, never during a stage").
func (s *Store) SavePipelineState(state *types.PipelineState) error {
	return s.writeJSON(pipelineStateFile, state)
}

func (s *Store) writeJSON(name string, v interface{}) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("resume: marshal %s: %w", name, err)
	}
	final := filepath.Join(s.workDir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return core.FileSystemPermission{Path: tmp, Err: err}
	}
	if err := retryRename(tmp, final); err != nil {
		return core.FileSystemPermission{Path: final, Err: err}
	}
	return nil
}

// retryRename retries a handful of times on transient rename failures
// (e.g. a virus scanner or backup tool briefly holding the file open on
// some platforms), since this is the one write every phase boundary
// depends on.
func retryRename(tmp, final string) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = os.Rename(tmp, final); err == nil {
			return nil
		}
	}
	return err
}
