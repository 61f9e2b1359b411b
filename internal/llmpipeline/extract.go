// Package llmpipeline runs the three-stage Extract -> Merge -> Assign
// sub-pipeline (spec §4.2), each stage a pure function of its input and
// prior stage output, logging its first request/response for debugging.
package llmpipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/audiobound/audiobound/internal/llmclient"
	"github.com/audiobound/audiobound/internal/promptschema"
	"github.com/audiobound/audiobound/pkg/types"
)

// InterBlockDelay is the small pause enforced between sequential Extract
// calls (spec §4.2: "Blocks are processed sequentially with a small delay
// between calls").
const InterBlockDelay = 250 * time.Millisecond

// StageLogger persists the first request/response of a stage to
// _temp_work/logs/<stage>_{request,response}.json for debugging.
type StageLogger struct {
	Dir     string
	logged  map[string]bool
}

// NewStageLogger returns a logger rooted at _temp_work/logs under workDir.
func NewStageLogger(workDir string) *StageLogger {
	return &StageLogger{Dir: filepath.Join(workDir, "logs"), logged: make(map[string]bool)}
}

// LogFirst writes request/response once per stage name; later calls are a
// no-op so only the first call of a stage is captured.
func (l *StageLogger) LogFirst(stage, request, response string) {
	if l == nil || l.logged[stage] {
		return
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(l.Dir, stage+"_request.json"), []byte(request), 0o644)
	_ = os.WriteFile(filepath.Join(l.Dir, stage+"_response.json"), []byte(response), 0o644)
	l.logged[stage] = true
}

// Extract runs the Extract stage over every block sequentially, retrying
// each with the shared backoff ladder, then merges the per-block results
// by case-insensitive canonical name.
func Extract(ctx context.Context, client llmclient.Client, creds types.LLMStageCredentials, blocks []types.TextBlock, logger *StageLogger) ([]*types.Character, error) {
	perBlock := make([][]*types.Character, 0, len(blocks))
	known := make([]string, 0)

	for i, block := range blocks {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		system, user := promptschema.BuildExtractPrompt(block, known)

		resp, err := llmclient.Retry(ctx, func(attempt int) (llmclient.Response, error) {
			return client.Complete(ctx, llmclient.Request{
				SystemPrompt: system,
				UserPrompt:   user,
				Temperature:  creds.Temperature,
				TopP:         creds.TopP,
				SchemaName:   types.StageExtract,
			})
		})
		if err != nil {
			return nil, err
		}
		logger.LogFirst(types.StageExtract, user, resp.Content)

		characters, _ := promptschema.ParseExtractResponse(resp.Content)
		perBlock = append(perBlock, characters)
		for _, c := range characters {
			known = append(known, c.Canonical)
		}

		if i < len(blocks)-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(InterBlockDelay):
			}
		}
	}

	return promptschema.MergeCharacters(perBlock), nil
}
