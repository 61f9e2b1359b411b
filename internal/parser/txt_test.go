package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTXTParserSplitsOnBlankLines(t *testing.T) {
	parser := NewTXTParser()
	ctx := context.Background()

	data := []byte(`This is the first paragraph.

This is the second paragraph with multiple sentences. It continues here.

This is the third paragraph.`)

	paragraphs, err := parser.Parse(ctx, data)
	require.NoError(t, err)
	require.Len(t, paragraphs, 3)
	assert.Contains(t, paragraphs[0], "first paragraph")
}

func TestTXTParserKeepsChapterHeadingsAsOwnParagraph(t *testing.T) {
	parser := NewTXTParser()
	ctx := context.Background()

	data := []byte(`Initial content before chapters.

CHAPTER ONE

This is the first chapter.

CHAPTER TWO

This is the second chapter.`)

	paragraphs, err := parser.Parse(ctx, data)
	require.NoError(t, err)
	assert.Contains(t, paragraphs, "CHAPTER ONE")
	assert.Contains(t, paragraphs, "CHAPTER TWO")
}

func TestTXTParserRejectsEmptyFile(t *testing.T) {
	parser := NewTXTParser()
	_, err := parser.Parse(context.Background(), []byte(""))
	assert.Error(t, err)
}

func TestTXTParserCollapsesMultipleBlankLines(t *testing.T) {
	parser := NewTXTParser()
	data := []byte("First paragraph.\n\n\nSecond paragraph.")

	paragraphs, err := parser.Parse(context.Background(), data)
	require.NoError(t, err)
	assert.Len(t, paragraphs, 2)
}

func TestTXTParserIsChapterHeading(t *testing.T) {
	parser := NewTXTParser()

	tests := []struct {
		name     string
		line     string
		expected bool
	}{
		{"Chapter with number", "Chapter 1", true},
		{"Chapter uppercase", "CHAPTER ONE", true},
		{"Part heading", "Part I", true},
		{"Section heading", "Section A", true},
		{"Prologue", "Prologue", true},
		{"Epilogue", "EPILOGUE", true},
		{"Introduction", "Introduction", true},
		{"Regular text", "This is a regular sentence.", false},
		{"Empty line", "", false},
		{"Short all caps", "THE END", true},
		{"Title case short", "The Beginning", true},
		{"Long title case", "This Is A Very Long Line That Should Not Be Considered A Title", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.isChapterHeading(tt.line))
		})
	}
}

func TestTXTParserSupportedFormats(t *testing.T) {
	parser := NewTXTParser()
	assert.Equal(t, []string{"txt"}, parser.SupportedFormats())
}
