package llmpipeline

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/audiobound/audiobound/internal/llmclient"
	"github.com/audiobound/audiobound/internal/promptschema"
	"github.com/audiobound/audiobound/internal/splitter"
	"github.com/audiobound/audiobound/pkg/types"
)

// AssignVoteTemperatures are the three temperatures the voting-mode Assign
// stage samples at, in order (spec §4.2). Index 0 (0.1) wins tie-breaks.
var AssignVoteTemperatures = []float64{0.1, 0.4, 0.7}

// Assign runs the Assign stage over every block, up to llmThreads blocks
// concurrently; each block's voting calls run sequentially within the
// block, per spec §5. Absent sentence indices default to the narrator.
// The returned assignments are sorted by sentence index.
func Assign(ctx context.Context, client llmclient.Client, creds types.LLMStageCredentials, useVoting bool, llmThreads int, blocks []types.TextBlock, codes *CodeSet, logger *StageLogger) ([]types.SpeakerAssignment, error) {
	if llmThreads < 1 {
		llmThreads = 1
	}
	sem := semaphore.NewWeighted(int64(llmThreads))

	results := make([][]types.SpeakerAssignment, len(blocks))
	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for i, block := range blocks {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(i int, block types.TextBlock) {
			defer wg.Done()
			defer sem.Release(1)

			assignments, err := assignBlock(ctx, client, creds, useVoting, block, codes, logger)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[i] = assignments
		}(i, block)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	all := make([]types.SpeakerAssignment, 0)
	for _, r := range results {
		all = append(all, r...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SentenceIndex < all[j].SentenceIndex })
	return all, nil
}

// assignBlock resolves speakers for one block's sentences, defaulting every
// index to narrator first. The block's paragraphs are flattened to
// sentences once up front (spec §4.2: assign resolves speaker per
// sentence, not per paragraph) and that same flattening anchors the
// prompt, the response validation range, and the final per-sentence
// assignment — no paragraph-to-sentence broadcast.
func assignBlock(ctx context.Context, client llmclient.Client, creds types.LLMStageCredentials, useVoting bool, block types.TextBlock, codes *CodeSet, logger *StageLogger) ([]types.SpeakerAssignment, error) {
	sentences := flattenSentences(block)
	speakerBySentence := make(map[int]string)

	if useVoting {
		votes := make([]map[int]string, 0, len(AssignVoteTemperatures))
		allFailed := true
		for _, temp := range AssignVoteTemperatures {
			vote, err := requestAssignVote(ctx, client, creds, temp, sentences, codes, logger)
			if err != nil {
				votes = append(votes, map[int]string{})
				continue
			}
			allFailed = false
			votes = append(votes, vote)
		}
		if allFailed {
			return buildAssignments(sentences, block.StartSentence, map[int]string{}, nil), nil
		}
		speakerBySentence = majorityVote(votes)
	} else {
		vote, err := requestAssignVote(ctx, client, creds, creds.Temperature, sentences, codes, logger)
		if err != nil {
			return buildAssignments(sentences, block.StartSentence, map[int]string{}, nil), nil
		}
		speakerBySentence = vote
	}

	return buildAssignments(sentences, block.StartSentence, speakerBySentence, codes), nil
}

// flattenSentences splits every paragraph in block into its sentences, in
// order, giving the sentence-indexed view assign operates on.
func flattenSentences(block types.TextBlock) []string {
	sentences := make([]string, 0, len(block.Paragraphs))
	for _, p := range block.Paragraphs {
		sentences = append(sentences, splitter.SplitSentences(p)...)
	}
	return sentences
}

func requestAssignVote(ctx context.Context, client llmclient.Client, creds types.LLMStageCredentials, temp float64, sentences []string, codes *CodeSet, logger *StageLogger) (map[int]string, error) {
	system, user := promptschema.BuildAssignPrompt(sentences, codes.Labels())
	resp, err := llmclient.Retry(ctx, func(attempt int) (llmclient.Response, error) {
		return client.Complete(ctx, llmclient.Request{
			SystemPrompt: system,
			UserPrompt:   user,
			Temperature:  temp,
			TopP:         creds.TopP,
			SchemaName:   types.StageAssign,
		})
	})
	if err != nil {
		return nil, err
	}
	logger.LogFirst(types.StageAssign, user, resp.Content)

	valid := make(map[string]bool, len(codes.CodeToName))
	for code := range codes.CodeToName {
		valid[code] = true
	}
	parsed, _ := promptschema.ParseAssignResponse(resp.Content, len(sentences), valid)
	return parsed, nil
}

// majorityVote resolves the speaker for each index by majority across the
// three votes; on a tie, the temperature-0.1 vote (index 0) wins.
func majorityVote(votes []map[int]string) map[int]string {
	allIndices := make(map[int]bool)
	for _, v := range votes {
		for idx := range v {
			allIndices[idx] = true
		}
	}

	result := make(map[int]string)
	for idx := range allIndices {
		counts := make(map[string]int)
		for _, v := range votes {
			if code, ok := v[idx]; ok {
				counts[code]++
			}
		}
		best := ""
		bestCount := 0
		for code, count := range counts {
			if count > bestCount {
				best, bestCount = code, count
			}
		}
		// Tie-break: if vote[0] (temp 0.1) disagrees with the winner by an
		// equal count, temp-0.1 wins.
		if firstCode, ok := votes[0][idx]; ok && counts[firstCode] == bestCount {
			best = firstCode
		}
		if best != "" {
			result[idx] = best
		}
	}
	return result
}

// buildAssignments applies speakerBySentence directly, one code per
// sentence — no paragraph-level broadcast.
func buildAssignments(sentences []string, startSentence int, speakerBySentence map[int]string, codes *CodeSet) []types.SpeakerAssignment {
	assignments := make([]types.SpeakerAssignment, 0, len(sentences))
	for i, s := range sentences {
		speaker := types.NarratorSpeaker
		if codes != nil {
			if code, ok := speakerBySentence[i]; ok {
				speaker = codes.SpeakerFor(code)
			}
		}
		assignments = append(assignments, types.SpeakerAssignment{
			SentenceIndex: startSentence + i,
			Text:          s,
			Speaker:       speaker,
		})
	}
	return assignments
}
