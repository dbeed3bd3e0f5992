// Package chunker implements the polymorphic chunker strategies (C5). A
// Chunker is selected per document from a registry keyed by model.DocType;
// all implementations share the contract (document text, doc metadata) →
// ordered chunks, modeled as a Go interface rather than an inheritance
// hierarchy.
package chunker

import (
	"fmt"

	"github.com/clinicalcore/retrieval-core/internal/enrich"
	"github.com/clinicalcore/retrieval-core/internal/model"
	"github.com/clinicalcore/retrieval-core/internal/textproc"
)

// DocMeta is the per-document context every Chunker needs besides the raw
// text: its id, inferred type, and page boundaries (character offset of
// each page break in the normalized text, used to derive PageNumber).
type DocMeta struct {
	DocID      string
	DocType    model.DocType
	PageBreaks []int // sorted char offsets where a new page begins
}

// Chunker produces an ordered list of Chunks with correct offsets and
// metadata for one document's normalized text.
type Chunker interface {
	Chunk(text string, meta DocMeta) ([]model.Chunk, error)
}

// Registry resolves a model.DocType to the Chunker strategy that handles
// it, collapsing what the source expressed as a class hierarchy into a
// flat, data-driven lookup (see SPEC_FULL §9).
type Registry struct {
	byType map[model.DocType]Chunker
	fallback Chunker
}

// NewRegistry builds the standard registry: HierarchicalChunker for
// clinical_paper/case_study, SectionBasedChunker for factsheet/brochure,
// ProtocolAwareChunker for protocol, and SectionBasedChunker as the
// fallback for doc_type=unknown.
func NewRegistry() *Registry {
	hierarchical := NewHierarchicalChunker()
	section := NewSectionBasedChunker()
	protocol := NewProtocolAwareChunker()

	return &Registry{
		byType: map[model.DocType]Chunker{
			model.DocTypeClinicalPaper: hierarchical,
			model.DocTypeCaseStudy:     hierarchical,
			model.DocTypeFactsheet:     section,
			model.DocTypeBrochure:      section,
			model.DocTypeProtocol:      protocol,
		},
		fallback: section,
	}
}

// Resolve returns the Chunker registered for docType, or the registry's
// fallback strategy (SectionBasedChunker) when unrecognized.
func (r *Registry) Resolve(docType model.DocType) Chunker {
	if c, ok := r.byType[docType]; ok {
		return c
	}
	return r.fallback
}

// pageNumberAt returns the 1-indexed page number containing charOffset,
// given a sorted list of page-break offsets.
func pageNumberAt(charOffset int, pageBreaks []int) int {
	page := 1
	for _, b := range pageBreaks {
		if charOffset >= b {
			page++
			continue
		}
		break
	}
	return page
}

// chunkID derives a stable, globally unique chunk id from the document id,
// its position, and its content hash, so re-ingesting unchanged content
// reproduces the same id set (idempotence, §8).
func chunkID(docID string, index int, text string) string {
	return fmt.Sprintf("%s:%04d:%s", docID, index, textproc.ContentHash(text)[:12])
}

// baseMetadata builds the ChunkMetadata common to every chunk of a
// document: the enrichment tags plus, when present, the protocol-info
// fields copied verbatim per invariant I5.
func baseMetadata(docType model.DocType, tags enrich.Tags, protocol textproc.ProtocolInfo) model.ChunkMetadata {
	return model.ChunkMetadata{
		Anatomy:           tags.Anatomy,
		Product:           tags.Product,
		Treatment:         tags.Treatment,
		DocType:           string(docType),
		HasProtocolInfo:   protocol.HasAny(),
		ProtocolSessions:  protocol.Sessions,
		ProtocolFrequency: protocol.Frequency,
		ProtocolDosage:    protocol.Dosage,
		ProtocolDuration:  protocol.Duration,
	}
}
