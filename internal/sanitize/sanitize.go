// Package sanitize strips markdown, control characters, and unicode
// bidi-control characters from assignment text before TTS rendering
// (spec §4.1 step 10). Sanitising an already-sanitised text is a fixed
// point: Sanitize(Sanitize(s)) == Sanitize(s).
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	markdownEmphasis = regexp.MustCompile(`(\*\*\*|\*\*|\*|___|__|_|~~)`)
	markdownHeading   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	markdownLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markdownCodeFence = regexp.MustCompile("```[a-zA-Z]*\n?|```")
	markdownInlineCode = regexp.MustCompile("`([^`]*)`")
	multiSpace        = regexp.MustCompile(`[ \t]+`)
	multiBlankLine    = regexp.MustCompile(`\n{3,}`)
)

// bidiControls are the unicode directional-formatting characters that can
// reorder rendered text without changing its pronunciation.
var bidiControls = map[rune]bool{
	'‎': true, '‏': true,
	'‪': true, '‫': true, '‬': true, '‭': true, '‮': true,
	'⁦': true, '⁧': true, '⁨': true, '⁩': true,
}

// Sanitize strips markdown markup, control characters, unicode bidi
// controls, and normalises whitespace.
func Sanitize(text string) string {
	text = markdownCodeFence.ReplaceAllString(text, "")
	text = markdownInlineCode.ReplaceAllString(text, "$1")
	text = markdownLink.ReplaceAllString(text, "$1")
	text = markdownHeading.ReplaceAllString(text, "")
	text = markdownEmphasis.ReplaceAllString(text, "")
	text = stripControlAndBidi(text)
	text = normalizeSpace(text)
	return text
}

func stripControlAndBidi(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if bidiControls[r] {
			continue
		}
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeSpace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = multiSpace.ReplaceAllString(line, " ")
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = multiBlankLine.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
