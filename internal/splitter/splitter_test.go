package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitParagraphsReproducesInput(t *testing.T) {
	text := "First paragraph.\n\n\nSecond   paragraph\nwith a wrapped line.\n\n\n\nThird."
	paragraphs := SplitParagraphs(text)
	require.Equal(t, []string{
		"First paragraph.",
		"Second paragraph with a wrapped line.",
		"Third.",
	}, paragraphs)
}

func TestSplitParagraphsDropsEmpty(t *testing.T) {
	paragraphs := SplitParagraphs("\n\n   \n\nOnly one.\n\n")
	require.Equal(t, []string{"Only one."}, paragraphs)
}

func TestSplitSentencesBasic(t *testing.T) {
	sentences := SplitSentences(`John walked in. "Hello, Sarah," he said. "Hello, John," she replied.`)
	require.Len(t, sentences, 3)
	assert.Equal(t, "John walked in.", sentences[0])
}

func TestSplitSentencesSingleSentenceHasNoTerminator(t *testing.T) {
	sentences := SplitSentences("just one clause with no stop")
	require.Equal(t, []string{"just one clause with no stop"}, sentences)
}

func TestBlocksPartitionSentenceSequence(t *testing.T) {
	paragraphs := []string{
		"One. Two. Three.",
		"Four. Five.",
		strings.Repeat("word ", 5000) + ".",
	}
	s := New(50)
	blocks := s.Blocks(paragraphs)
	require.NotEmpty(t, blocks)

	cursor := 0
	for i, b := range blocks {
		assert.Equal(t, i, b.Index)
		assert.Equal(t, cursor, b.StartSentence)
		for _, p := range b.Paragraphs {
			cursor += CountSentences(p)
		}
	}
}

func TestBlocksOversizedParagraphGetsOwnBlock(t *testing.T) {
	huge := strings.Repeat("word ", 5000)
	s := New(10)
	blocks := s.Blocks([]string{"short one.", huge, "short two."})
	require.Len(t, blocks, 3)
	assert.Equal(t, huge, blocks[1].Paragraphs[0])
}
