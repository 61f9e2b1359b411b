// Package splitter turns raw manuscript text into paragraphs, sentences,
// and token-bounded TextBlocks — the unit of input to the LLM sub-pipeline.
package splitter

import (
	"regexp"
	"strings"

	"github.com/audiobound/audiobound/pkg/types"
)

// DefaultMaxTokensPerBlock is the token budget used when the caller does
// not override it.
const DefaultMaxTokensPerBlock = 1200

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// sentenceBoundary matches a sentence terminator (one or more of .!?,
// optionally followed by closing quotes/brackets) followed by whitespace.
// Every such terminator ends a sentence; abbreviations such as "Mr." are
// not recognised and split like any other full stop.
var sentenceBoundary = regexp.MustCompile(`([.!?]+["'\)\]]*)(\s+)`)

// Splitter groups paragraphs into token-bounded TextBlocks.
type Splitter struct {
	maxTokensPerBlock int
}

// New returns a Splitter with the given per-block token budget. A
// non-positive budget falls back to DefaultMaxTokensPerBlock.
func New(maxTokensPerBlock int) *Splitter {
	if maxTokensPerBlock <= 0 {
		maxTokensPerBlock = DefaultMaxTokensPerBlock
	}
	return &Splitter{maxTokensPerBlock: maxTokensPerBlock}
}

// SplitParagraphs splits raw text on blank-line boundaries, trims each
// paragraph, and drops any that are empty after trimming.
//
// Invariant (testable property, spec §8): joining the result with "\n\n"
// reproduces the input modulo whitespace normalisation and the dropped
// empty paragraphs.
func SplitParagraphs(text string) []string {
	raw := paragraphBreak.Split(text, -1)
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, normalizeWhitespace(p))
	}
	return paragraphs
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// SplitSentences splits a single paragraph into sentences. The returned
// slice always has at least one element for a non-empty paragraph.
func SplitSentences(paragraph string) []string {
	paragraph = strings.TrimSpace(paragraph)
	if paragraph == "" {
		return nil
	}
	matches := sentenceBoundary.FindAllStringIndex(paragraph, -1)
	if len(matches) == 0 {
		return []string{paragraph}
	}
	sentences := make([]string, 0, len(matches)+1)
	last := 0
	for _, m := range matches {
		end := m[1]
		s := strings.TrimSpace(paragraph[last:end])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = end
	}
	if tail := strings.TrimSpace(paragraph[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// CountSentences returns the number of sentences SplitSentences returns
// for paragraph (it calls SplitSentences and counts the result).
func CountSentences(paragraph string) int {
	return len(SplitSentences(paragraph))
}

func estimateTokens(s string) int {
	return len(strings.Fields(s))
}

// Blocks groups paragraphs into TextBlocks bounded by maxTokensPerBlock.
// A paragraph that alone exceeds the budget still gets its own block
// rather than being split mid-paragraph — Assign operates at paragraph
// granularity and a partial paragraph has no well-defined speaker.
//
// Invariant (spec §3): blocks partition the sentence sequence without
// overlap; StartSentence of block n+1 equals StartSentence of block n plus
// the sentence count of block n's paragraphs.
func (s *Splitter) Blocks(paragraphs []string) []types.TextBlock {
	blocks := make([]types.TextBlock, 0)
	var current []string
	tokens := 0
	startSentence := 0
	blockStartSentence := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, types.TextBlock{
			Index:         len(blocks),
			Paragraphs:    current,
			StartSentence: blockStartSentence,
		})
		current = nil
		tokens = 0
		blockStartSentence = startSentence
	}

	for _, p := range paragraphs {
		pTokens := estimateTokens(p)
		if tokens > 0 && tokens+pTokens > s.maxTokensPerBlock {
			flush()
		}
		current = append(current, p)
		tokens += pTokens
		startSentence += CountSentences(p)
	}
	flush()

	return blocks
}
