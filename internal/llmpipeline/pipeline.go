package llmpipeline

import (
	"context"

	"github.com/audiobound/audiobound/internal/llmclient"
	"github.com/audiobound/audiobound/pkg/types"
)

// Clients bundles the three per-stage LLM clients the pipeline needs. They
// may all point at the same underlying provider or three different ones.
type Clients struct {
	Extract llmclient.Client
	Merge   llmclient.Client
	Assign  llmclient.Client
}

// Result is the combined output of the full Extract -> Merge -> Assign run.
type Result struct {
	Characters  []*types.Character
	Assignments []types.SpeakerAssignment
	Codes       *CodeSet
}

// RunExtractAndMerge executes the Extract and Merge stages in order. Assign
// runs separately through RunAssign, so callers can perform the initial
// voice allocation between the two (spec §4.1 steps 4 and 6).
func RunExtractAndMerge(ctx context.Context, clients Clients, input types.OrchestratorInput, blocks []types.TextBlock, logger *StageLogger) ([]*types.Character, error) {
	characters, err := Extract(ctx, clients.Extract, input.Extract, blocks, logger)
	if err != nil {
		return nil, err
	}
	return Merge(ctx, clients.Merge, characters, logger)
}

// RunAssign executes the Assign stage given the character set resolved by
// Extract/Merge and the initial voice allocation.
func RunAssign(ctx context.Context, clients Clients, input types.OrchestratorInput, blocks []types.TextBlock, characters []*types.Character, logger *StageLogger) (*Result, error) {
	codes := BuildCodeSet(characters)
	assignments, err := Assign(ctx, clients.Assign, input.Assign, input.UseVoting, input.Rendering.LLMThreads, blocks, codes, logger)
	if err != nil {
		return nil, err
	}
	return &Result{Characters: characters, Assignments: assignments, Codes: codes}, nil
}
