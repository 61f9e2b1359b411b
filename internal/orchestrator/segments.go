package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/audiobound/audiobound/internal/splitter"
	"github.com/audiobound/audiobound/pkg/types"
)

// chapterHeading matches a paragraph that looks like a chapter break, so
// long manuscripts split into one output file per chapter instead of one
// giant file. Anything not matching this falls into a single segment
// spanning the whole book.
var chapterHeading = regexp.MustCompile(`(?i)^(chapter|part|book)\s+\S+`)

// DeriveSegments partitions the sentence sequence of paragraphs into
// Segments at chapter-heading boundaries (spec §4.4: one output audio file
// per segment). A manuscript with no recognizable chapter headings yields
// a single segment covering the whole book.
func DeriveSegments(bookName string, paragraphs []string) []types.Segment {
	var segments []types.Segment
	sentenceIndex := 0
	chapterCount := 0

	for _, p := range paragraphs {
		if chapterHeading.MatchString(strings.TrimSpace(p)) {
			chapterCount++
			segments = append(segments, types.Segment{
				Label:              segmentLabel(bookName, chapterCount, p),
				FirstSentenceIndex: sentenceIndex,
			})
		}
		sentenceIndex += splitter.CountSentences(p)
	}

	if len(segments) == 0 {
		return []types.Segment{{Label: bookName, FirstSentenceIndex: 0}}
	}
	return segments
}

func segmentLabel(bookName string, ordinal int, heading string) string {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return fmt.Sprintf("%s-%03d", bookName, ordinal)
	}
	return fmt.Sprintf("%s-%03d-%s", bookName, ordinal, slugify(heading))
}

var nonSlugChar = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = strings.ToLower(s)
	s = nonSlugChar.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// segmentBounds returns, for segment i among segments (sorted by
// FirstSentenceIndex ascending), the partIndex values belonging to it:
// every assignment whose SentenceIndex falls in
// [segments[i].FirstSentenceIndex, segments[i+1].FirstSentenceIndex), or
// through the end of the stream for the last segment.
func segmentBounds(segments []types.Segment, assignments []types.SpeakerAssignment) [][]int {
	bounds := make([][]int, len(segments))
	for _, a := range assignments {
		idx := segmentIndexFor(segments, a.SentenceIndex)
		bounds[idx] = append(bounds[idx], a.SentenceIndex)
	}
	return bounds
}

func segmentIndexFor(segments []types.Segment, sentenceIndex int) int {
	best := 0
	for i, seg := range segments {
		if seg.FirstSentenceIndex <= sentenceIndex {
			best = i
		} else {
			break
		}
	}
	return best
}
