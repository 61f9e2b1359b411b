package parser

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// PDFParser does a best-effort plain-text extraction from a PDF's content
// streams, without a full PDF object model: it locates stream/endstream
// blocks, inflates the FlateDecode ones, and reads the Tj/TJ text-showing
// operators out of the resulting page content. It will miss text in PDFs
// that use other stream filters or embedded fonts with custom encodings.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

var (
	streamBlock  = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)
	flateNearby  = regexp.MustCompile(`(?s)FlateDecode.{0,200}?stream`)
	showText     = regexp.MustCompile(`\((?:[^()\\]|\\.)*\)\s*Tj`)
	showTextArr  = regexp.MustCompile(`\[(?:[^\[\]]*)\]\s*TJ`)
	parenLiteral = regexp.MustCompile(`\((?:[^()\\]|\\.)*\)`)
)

// Parse extracts paragraphs from a PDF's page content streams.
func (p *PDFParser) Parse(ctx context.Context, data []byte) ([]string, error) {
	var lines []string

	for _, m := range streamBlock.FindAllSubmatchIndex(data, -1) {
		raw := data[m[2]:m[3]]
		preamble := data[max(0, m[0]-300):m[0]]

		content := raw
		if flateNearby.Match(append(append([]byte{}, preamble...), []byte("stream")...)) {
			if inflated, err := inflate(raw); err == nil {
				content = inflated
			}
		}

		text := extractShownText(content)
		if text != "" {
			lines = append(lines, text)
		}
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("pdf: no extractable text found")
	}
	return lines, nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// extractShownText pulls the literal-string operands of Tj/TJ operators
// out of a page content stream and joins them into one paragraph.
func extractShownText(content []byte) string {
	var b strings.Builder

	for _, m := range showText.FindAll(content, -1) {
		appendLiteral(&b, m)
	}
	for _, m := range showTextArr.FindAll(content, -1) {
		for _, lit := range parenLiteral.FindAll(m, -1) {
			appendLiteral(&b, lit)
		}
	}

	return strings.TrimSpace(b.String())
}

func appendLiteral(b *strings.Builder, tjOperator []byte) {
	lit := parenLiteral.Find(tjOperator)
	if lit == nil {
		return
	}
	inner := lit[1 : len(lit)-1]
	unescaped := unescapePDFString(inner)
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.Write(unescaped)
}

func unescapePDFString(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, s[i])
			}
			continue
		}
		out = append(out, s[i])
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// SupportedFormats returns the formats this parser supports.
func (p *PDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}
