package llmpipeline

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/audiobound/audiobound/internal/llmclient"
	"github.com/audiobound/audiobound/internal/promptschema"
	"github.com/audiobound/audiobound/pkg/types"
)

// MergeVoteCount is N, the number of parallel consensus votes (spec §4.2).
const MergeVoteCount = 5

// MergeConsensusThreshold is the minimum number of votes a pair of indices
// must co-occur in to be unioned.
const MergeConsensusThreshold = 2

// unionFind is a minimal disjoint-set structure over character indices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// Merge runs a consensus merge when more than one block produced
// characters. It fires MergeVoteCount parallel LLM calls at random
// temperatures, builds a union-find over pairs that co-occur in at least
// MergeConsensusThreshold votes, and collapses each resulting group onto
// the index with the most "keep-first" votes (ties broken by lowest
// index).
func Merge(ctx context.Context, client llmclient.Client, characters []*types.Character, logger *StageLogger) ([]*types.Character, error) {
	if len(characters) <= 1 {
		return characters, nil
	}

	votes := make([][][]int, MergeVoteCount)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < MergeVoteCount; i++ {
		i := i
		g.Go(func() error {
			system, user := promptschema.BuildMergePrompt(characters)
			temp := rand.Float64()
			resp, err := llmclient.Retry(gctx, func(attempt int) (llmclient.Response, error) {
				return client.Complete(gctx, llmclient.Request{
					SystemPrompt: system,
					UserPrompt:   user,
					Temperature:  temp,
					SchemaName:   types.StageMerge,
				})
			})
			if err != nil {
				return err
			}
			logger.LogFirst(types.StageMerge, user, resp.Content)
			groups, _ := promptschema.ParseMergeResponse(resp.Content, len(characters))
			votes[i] = groups
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return consensus(characters, votes), nil
}

// consensus implements the union-find-over-co-occurring-pairs reduction
// described in spec §4.2. It is deterministic for a fixed vote set
// (testable property: idempotent on repeated runs over the same votes).
func consensus(characters []*types.Character, votes [][][]int) []*types.Character {
	n := len(characters)
	pairVotes := make(map[[2]int]int)
	keepFirstVotes := make(map[int]int)

	for _, groups := range votes {
		for _, group := range groups {
			if len(group) == 0 {
				continue
			}
			keepFirstVotes[group[0]]++
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					key := pairKey(group[i], group[j])
					pairVotes[key]++
				}
			}
		}
	}

	uf := newUnionFind(n)
	for pair, count := range pairVotes {
		if count >= MergeConsensusThreshold {
			uf.union(pair[0], pair[1])
		}
	}

	groups := make(map[int][]int)
	var roots []int
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], i)
	}

	merged := make([]*types.Character, 0, len(groups))
	for _, root := range roots {
		members := groups[root]
		keeper := members[0]
		best := -1
		for _, m := range members {
			votes := keepFirstVotes[m]
			if votes > best || (votes == best && m < keeper) {
				best = votes
				keeper = m
			}
		}
		result := *characters[keeper]
		result.Variations = append([]string(nil), characters[keeper].Variations...)
		for _, m := range members {
			if m == keeper {
				continue
			}
			result.MergeFrom(characters[m])
		}
		merged = append(merged, &result)
	}
	return merged
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
