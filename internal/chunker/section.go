package chunker

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicalcore/retrieval-core/internal/enrich"
	"github.com/clinicalcore/retrieval-core/internal/model"
	"github.com/clinicalcore/retrieval-core/internal/textproc"
)

const (
	sectionTargetChars = 600
	sectionMinChars    = 150
	sectionOverlapChars = 0
)

// SectionBasedChunker handles factsheet and brochure documents: it splits
// on recognized section headings (canonicalized via
// textproc.CanonicalSection) and targets ~600 char chunks within each
// section. Flat chunks — no parent/child relationship.
type SectionBasedChunker struct{}

func NewSectionBasedChunker() *SectionBasedChunker {
	return &SectionBasedChunker{}
}

func (s *SectionBasedChunker) Chunk(text string, meta DocMeta) ([]model.Chunk, error) {
	normalized := textproc.Normalize(text)
	if normalized == "" {
		return nil, fmt.Errorf("chunker.SectionBasedChunker: empty document text")
	}

	tags := enrich.TagDocument(normalized)
	// Protocol-info extraction runs once per document, independent of
	// doc_type, so a factsheet with an embedded dosage table still
	// surfaces protocol fields on its chunks.
	protocol := textproc.ExtractProtocolInfo(normalized)
	now := time.Now().UTC()

	paragraphs := splitWithOffsets(normalized)

	var chunks []model.Chunk
	index := 0
	currentSection := ""

	var buf strings.Builder
	bufStart := -1
	bufEnd := 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		content := buf.String()
		chunks = append(chunks, model.Chunk{
			ChunkID:    chunkID(meta.DocID, index, content),
			DocID:      meta.DocID,
			DocType:    meta.DocType,
			Text:       content,
			CharStart:  bufStart,
			CharEnd:    bufEnd,
			PageNumber: pageNumberAt(bufStart, meta.PageBreaks),
			Section:    currentSection,
			ChunkType:  model.ChunkFlat,
			Metadata:   baseMetadata(meta.DocType, tags, protocol),
			TokenCount: textproc.EstimateTokens(content),
			CreatedAt:  now,
		})
		index++
		buf.Reset()
		bufStart = -1
	}

	for _, para := range paragraphs {
		if title := textproc.ExtractSectionTitle(para.text); title != "" {
			flush()
			currentSection = textproc.CanonicalSection(title)
			continue
		}

		if buf.Len() > 0 && buf.Len()+len(para.text) > sectionTargetChars {
			flush()
		}
		if bufStart < 0 {
			bufStart = para.start
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para.text)
		bufEnd = para.end
	}
	flush()

	// Merge every undersized chunk into its predecessor within the same
	// section rather than emitting a sub-150-char fragment.
	chunks = mergeUndersizedTail(chunks, sectionMinChars)

	return chunks, nil
}

type offsetParagraph struct {
	text       string
	start, end int
}

// splitWithOffsets splits on blank lines like textproc.SplitParagraphs but
// retains each paragraph's exact offset in the source text.
func splitWithOffsets(text string) []offsetParagraph {
	raw := strings.Split(text, "\n\n")
	var result []offsetParagraph
	cursor := 0
	for _, p := range raw {
		start := strings.Index(text[cursor:], p) + cursor
		end := start + len(p)
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			// Re-anchor start to the trimmed content.
			lead := strings.Index(p, trimmed)
			result = append(result, offsetParagraph{text: trimmed, start: start + lead, end: start + lead + len(trimmed)})
		}
		cursor = end
	}
	return result
}

// mergeUndersizedTail folds any chunk shorter than minChars into the
// previous chunk of the same section, extending that chunk's CharEnd.
func mergeUndersizedTail(chunks []model.Chunk, minChars int) []model.Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	out := make([]model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(out) > 0 && len(c.Text) < minChars && out[len(out)-1].Section == c.Section {
			prev := &out[len(out)-1]
			prev.Text = prev.Text + "\n\n" + c.Text
			prev.CharEnd = c.CharEnd
			prev.TokenCount = textproc.EstimateTokens(prev.Text)
			continue
		}
		out = append(out, c)
	}
	return out
}
