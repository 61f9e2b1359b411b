package parser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// TXTParser parses plain text files into paragraphs, splitting on blank
// lines and folding soft-wrapped lines back into one paragraph.
type TXTParser struct{}

// NewTXTParser creates a new TXT parser.
func NewTXTParser() *TXTParser {
	return &TXTParser{}
}

// Parse extracts paragraphs from a TXT file.
func (p *TXTParser) Parse(ctx context.Context, data []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	paragraphs := make([]string, 0)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			flush()
			continue
		}

		if p.isChapterHeading(line) {
			flush()
			paragraphs = append(paragraphs, line)
			continue
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading text: %w", err)
	}

	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("no content found in text file")
	}

	return paragraphs, nil
}

// isChapterHeading reports whether line looks like a chapter/part/section
// heading, so it's kept as its own paragraph rather than folded into
// surrounding prose.
func (p *TXTParser) isChapterHeading(line string) bool {
	if len(line) == 0 {
		return false
	}

	lower := strings.ToLower(line)
	patterns := []string{"chapter ", "part ", "section ", "prologue", "epilogue", "introduction"}
	for _, pattern := range patterns {
		if strings.HasPrefix(lower, pattern) {
			return true
		}
	}

	if len(line) < 60 && (isAllCaps(line) || isTitleCase(line)) {
		return true
	}

	return false
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func isTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}

	titleCaseCount := 0
	for _, word := range words {
		if len(word) > 0 {
			first := rune(word[0])
			if first >= 'A' && first <= 'Z' {
				titleCaseCount++
			}
		}
	}

	return float64(titleCaseCount)/float64(len(words)) > 0.7
}

// SupportedFormats returns the formats this parser supports.
func (p *TXTParser) SupportedFormats() []string {
	return []string{"txt"}
}
