package resume

import (
	"fmt"

	"github.com/audiobound/audiobound/pkg/types"
)

// Decision is the outcome of resolving whether a conversion resumes from a
// prior run (spec §4.1 step 2).
type Decision struct {
	ShouldResume bool
	PriorState   *types.PipelineState
}

// ConfirmFunc asks the caller (UI or CLI) whether to resume a matching
// prior run. It is only invoked when a resumable state actually exists.
type ConfirmFunc func() (bool, error)

// Resolve implements step 2 of spec §4.1: if _temp_work/pipeline_state.json
// exists and its signature matches the freshly computed one, ask confirm
// for permission to resume. On confirmation, the caller should skip the
// LLM phases and continue from the persisted state; in every other case
// _temp_work is purged so the run starts clean.
func Resolve(store *Store, current types.JobSignature, confirm ConfirmFunc) (Decision, error) {
	if !store.Exists() {
		return Decision{}, nil
	}

	prior, err := store.LoadSignature()
	if err != nil {
		return Decision{}, err
	}

	if !prior.Matches(current) {
		return Decision{}, store.Purge()
	}

	ok, err := confirm()
	if err != nil {
		return Decision{}, fmt.Errorf("resume: confirm: %w", err)
	}
	if !ok {
		return Decision{}, store.Purge()
	}

	state, err := store.LoadPipelineState()
	if err != nil {
		return Decision{}, err
	}
	return Decision{ShouldResume: true, PriorState: state}, nil
}
