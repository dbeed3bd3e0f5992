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
	protocolSectionMaxChars = 1200 // never split below this size
	protocolSplitTarget     = 600
	protocolSplitMin        = 150
)

// ProtocolAwareChunker handles protocol documents. It detects
// protocol-relevant sections by heading keywords; a section at or under
// 1200 chars is emitted as a single, never-split chunk so that session,
// frequency, and dosage facts stay together. Larger sections are split,
// but every resulting chunk is prefixed with a one-line verbatim summary
// of the document's protocol metadata, preserving answer completeness
// even when a split separates the original sentence containing the facts.
type ProtocolAwareChunker struct{}

func NewProtocolAwareChunker() *ProtocolAwareChunker {
	return &ProtocolAwareChunker{}
}

func (p *ProtocolAwareChunker) Chunk(text string, meta DocMeta) ([]model.Chunk, error) {
	normalized := textproc.Normalize(text)
	if normalized == "" {
		return nil, fmt.Errorf("chunker.ProtocolAwareChunker: empty document text")
	}

	tags := enrich.TagDocument(normalized)
	protocol := textproc.ExtractProtocolInfo(normalized)
	now := time.Now().UTC()
	summary := protocol.Summary()

	sections := splitIntoSections(normalized)

	var chunks []model.Chunk
	index := 0

	for _, sec := range sections {
		isProtocol := textproc.IsProtocolHeading(sec.heading)
		canonSection := textproc.CanonicalSection(sec.heading)

		if isProtocol && len(sec.text) <= protocolSectionMaxChars {
			chunks = append(chunks, model.Chunk{
				ChunkID:    chunkID(meta.DocID, index, sec.text),
				DocID:      meta.DocID,
				DocType:    meta.DocType,
				Text:       sec.text,
				CharStart:  sec.start,
				CharEnd:    sec.end,
				PageNumber: pageNumberAt(sec.start, meta.PageBreaks),
				Section:    canonSection,
				ChunkType:  model.ChunkFlat,
				Metadata:   baseMetadata(meta.DocType, tags, protocol),
				TokenCount: textproc.EstimateTokens(sec.text),
				CreatedAt:  now,
			})
			index++
			continue
		}

		segs := textproc.BuildSegments(sec.text, protocolSplitTarget, protocolSplitMin, 0)
		for _, seg := range segs {
			content := seg.Text
			if isProtocol && summary != "" {
				content = summary + "\n\n" + content
			}
			chunks = append(chunks, model.Chunk{
				ChunkID:    chunkID(meta.DocID, index, content),
				DocID:      meta.DocID,
				DocType:    meta.DocType,
				Text:       content,
				CharStart:  sec.start + seg.CharStart,
				CharEnd:    sec.start + seg.CharEnd,
				PageNumber: pageNumberAt(sec.start+seg.CharStart, meta.PageBreaks),
				Section:    canonSection,
				ChunkType:  model.ChunkFlat,
				Metadata:   baseMetadata(meta.DocType, tags, protocol),
				TokenCount: textproc.EstimateTokens(content),
				CreatedAt:  now,
			})
			index++
		}
	}

	return chunks, nil
}

type docSection struct {
	heading    string
	text       string
	start, end int
}

// splitIntoSections partitions text on recognized heading lines, attaching
// each heading to the text that follows until the next heading.
func splitIntoSections(text string) []docSection {
	paras := splitWithOffsets(text)
	var sections []docSection
	heading := ""
	var buf strings.Builder
	start := -1
	end := 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		sections = append(sections, docSection{heading: heading, text: buf.String(), start: start, end: end})
		buf.Reset()
		start = -1
	}

	for _, para := range paras {
		if title := textproc.ExtractSectionTitle(para.text); title != "" {
			flush()
			heading = title
			continue
		}
		if start < 0 {
			start = para.start
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para.text)
		end = para.end
	}
	flush()

	if len(sections) == 0 {
		sections = append(sections, docSection{heading: "", text: text, start: 0, end: len(text)})
	}
	return sections
}
