package parser

import "context"

// Parser extracts the flat paragraph sequence from a document. Chapter/part
// boundaries are not modeled here — DeriveSegments recovers them later from
// paragraph text, uniformly across every source format.
type Parser interface {
	// Parse extracts paragraphs, in reading order, from the document.
	Parse(ctx context.Context, data []byte) ([]string, error)

	// SupportedFormats returns the file formats this parser supports.
	SupportedFormats() []string
}

// Factory creates parsers for different formats.
type Factory interface {
	// GetParser returns a parser for the given format.
	GetParser(format string) (Parser, error)
}
