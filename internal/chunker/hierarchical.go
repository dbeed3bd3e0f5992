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
	hierarchicalParentChars  = 1500
	hierarchicalParentMin    = 600
	hierarchicalParentOverlap = 0

	hierarchicalChildChars   = 500
	hierarchicalChildMin     = 150
	hierarchicalChildOverlap = 100
)

// HierarchicalChunker handles clinical_paper and case_study documents:
// parents of ~1500 chars, each split into children of ~500 chars with
// ~100 char overlap. Every child's ParentID references the owning parent,
// and the parent's ChildIDs list is populated — invariant I1.
type HierarchicalChunker struct{}

func NewHierarchicalChunker() *HierarchicalChunker {
	return &HierarchicalChunker{}
}

func (h *HierarchicalChunker) Chunk(text string, meta DocMeta) ([]model.Chunk, error) {
	normalized := textproc.Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		return nil, fmt.Errorf("chunker.HierarchicalChunker: empty document text")
	}

	tags := enrich.TagDocument(normalized)
	protocol := textproc.ExtractProtocolInfo(normalized)
	now := time.Now().UTC()

	parentSegs := textproc.BuildSegments(normalized, hierarchicalParentChars, hierarchicalParentMin, hierarchicalParentOverlap)

	var chunks []model.Chunk
	index := 0
	section := ""

	for _, pseg := range parentSegs {
		if title := textproc.ExtractSectionTitle(firstLine(pseg.Text)); title != "" {
			section = textproc.CanonicalSection(title)
		}

		parent := model.Chunk{
			ChunkID:    chunkID(meta.DocID, index, pseg.Text),
			DocID:      meta.DocID,
			DocType:    meta.DocType,
			Text:       pseg.Text,
			CharStart:  pseg.CharStart,
			CharEnd:    pseg.CharEnd,
			PageNumber: pageNumberAt(pseg.CharStart, meta.PageBreaks),
			Section:    section,
			ChunkType:  model.ChunkParent,
			Metadata:   baseMetadata(meta.DocType, tags, protocol),
			TokenCount: textproc.EstimateTokens(pseg.Text),
			CreatedAt:  now,
		}
		index++

		childSegsRaw := textproc.BuildSegments(pseg.Text, hierarchicalChildChars, hierarchicalChildMin, hierarchicalChildOverlap)
		children := make([]model.Chunk, 0, len(childSegsRaw))
		childIDs := make([]string, 0, len(childSegsRaw))
		for _, cseg := range childSegsRaw {
			child := model.Chunk{
				ChunkID: chunkID(meta.DocID, index, cseg.Text),
				DocID:   meta.DocID,
				DocType: meta.DocType,
				Text:    cseg.Text,
				// Child offsets are relative to the parent segment;
				// translate into document-absolute offsets so the
				// concatenation invariant holds at the document level.
				CharStart:  pseg.CharStart + cseg.CharStart,
				CharEnd:    pseg.CharStart + cseg.CharEnd,
				PageNumber: pageNumberAt(pseg.CharStart+cseg.CharStart, meta.PageBreaks),
				Section:    section,
				ChunkType:  model.ChunkChild,
				ParentID:   parent.ChunkID,
				Metadata:   baseMetadata(meta.DocType, tags, protocol),
				TokenCount: textproc.EstimateTokens(cseg.Text),
				CreatedAt:  now,
			}
			index++
			childIDs = append(childIDs, child.ChunkID)
			children = append(children, child)
		}
		parent.ChildIDs = childIDs
		chunks = append(chunks, parent)
		chunks = append(chunks, children...)
	}

	return chunks, nil
}

func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i]
		}
	}
	return text
}
