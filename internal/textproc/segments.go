package textproc

import "strings"

// Segment is a character-addressed span of a document's normalized text,
// the unit chunker implementations convert into model.Chunk values.
type Segment struct {
	Text      string
	CharStart int
	CharEnd   int
}

// sentenceSpan pairs a sentence with its exact offsets in the source text.
type sentenceSpan struct {
	start, end int
}

// spanSentences locates the exact char offsets of each sentence returned by
// SplitSentences within text, by walking forward with a cursor. Sentence
// boundaries from SplitSentences are substrings of text in order, so a
// forward-only search never revisits earlier text.
func spanSentences(text string) []sentenceSpan {
	sentences := SplitSentences(text)
	spans := make([]sentenceSpan, 0, len(sentences))
	cursor := 0
	for _, s := range sentences {
		idx := strings.Index(text[cursor:], s)
		if idx < 0 {
			// Defensive: sentence normalization (TrimSpace) can desync the
			// cursor on unusual whitespace; skip rather than misattribute
			// an offset.
			continue
		}
		start := cursor + idx
		end := start + len(s)
		spans = append(spans, sentenceSpan{start: start, end: end})
		cursor = end
	}
	return spans
}

// BuildSegments splits text into an ordered list of Segments of
// approximately targetChars length (never below minChars unless it is the
// final segment), with overlapChars of trailing context repeated as the
// leading context of the next segment.
//
// Offsets are tracked with an explicit running cursor, actualChunkStart,
// that is advanced by (segment length − overlapChars) once a segment is
// emitted. Offsets are never derived by re-summing emitted segment lengths
// after the fact — doing so double-counts overlap regions and desyncs
// CharStart/CharEnd from the source text once more than one chunk exists.
func BuildSegments(text string, targetChars, minChars, overlapChars int) []Segment {
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	spans := spanSentences(text)
	if len(spans) == 0 {
		return []Segment{{Text: text, CharStart: 0, CharEnd: len(text)}}
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= targetChars {
		overlapChars = targetChars / 4
	}

	var segments []Segment
	actualChunkStart := spans[0].start
	idx := 0 // first sentence not yet consumed by a previous segment

	for idx < len(spans) {
		segStart := actualChunkStart
		k := idx
		segEnd := spans[k].end
		for k+1 < len(spans) && spans[k+1].end-segStart < targetChars {
			k++
			segEnd = spans[k].end
		}
		// Merge a too-short final-ish segment with one more sentence, as
		// long as that sentence exists and doing so isn't the whole tail.
		if k+1 < len(spans) && segEnd-segStart < minChars {
			k++
			segEnd = spans[k].end
		}

		segments = append(segments, Segment{
			Text:      text[segStart:segEnd],
			CharStart: segStart,
			CharEnd:   segEnd,
		})

		if k+1 >= len(spans) {
			break
		}

		// Advance the running offset by (chunk_length − overlap) rather
		// than by re-deriving it from the emitted segment list.
		nextStart := segEnd - overlapChars
		if nextStart < segStart {
			nextStart = segStart
		}
		actualChunkStart = nextStart

		// Resume from the earliest sentence whose span still intersects
		// the new cursor, so the overlap region is real source text.
		newIdx := k + 1
		for newIdx > 0 && spans[newIdx-1].end > actualChunkStart {
			newIdx--
		}
		if newIdx <= idx {
			// Guarantee forward progress even if overlapChars is large
			// enough to otherwise re-select the same starting sentence.
			newIdx = idx + 1
		}
		idx = newIdx
	}

	return segments
}
