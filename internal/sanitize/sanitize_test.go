package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsMarkdown(t *testing.T) {
	assert.Equal(t, "Hello world", Sanitize("**Hello** _world_"))
	assert.Equal(t, "A link", Sanitize("[A link](https://example.com)"))
	assert.Equal(t, "code", Sanitize("`code`"))
}

func TestSanitizeStripsHeading(t *testing.T) {
	assert.Equal(t, "Chapter One", Sanitize("## Chapter One"))
}

func TestSanitizeStripsBidiControls(t *testing.T) {
	assert.Equal(t, "abc", Sanitize("a‫b‬c"))
}

func TestSanitizeNormalizesWhitespace(t *testing.T) {
	assert.Equal(t, "a b\n\nc", Sanitize("a    b\n\n\n\nc"))
}

func TestSanitizeIsFixedPoint(t *testing.T) {
	inputs := []string{
		"**Bold** and _italic_ and [link](url) and `code`.",
		"# Heading\n\nSome   text   with\n\n\n\nextra blank lines.",
		"Plain text already clean.",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		assert.Equal(t, once, twice, "sanitize must be idempotent for %q", in)
	}
}
