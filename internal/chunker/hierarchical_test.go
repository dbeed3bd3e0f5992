package chunker

import (
	"strings"
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func longParagraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("This is a clinical paper paragraph discussing polynucleotide therapy outcomes in detail. ")
		b.WriteString("It describes methodology, patient cohorts, and measured endpoints across multiple centers. ")
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestHierarchicalChunker_ParentChildInvariant(t *testing.T) {
	h := NewHierarchicalChunker()
	text := longParagraphs(12)

	chunks, err := h.Chunk(text, DocMeta{DocID: "doc-1", DocType: model.DocTypeClinicalPaper})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}

	byID := make(map[string]model.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ChunkID] = c
	}

	var sawChild bool
	for _, c := range chunks {
		if c.ChunkType != model.ChunkChild {
			continue
		}
		sawChild = true
		parent, ok := byID[c.ParentID]
		if !ok {
			t.Fatalf("child %s references missing parent %s", c.ChunkID, c.ParentID)
		}
		if parent.DocID != c.DocID {
			t.Errorf("parent.DocID = %q, child.DocID = %q, want equal", parent.DocID, c.DocID)
		}
		found := false
		for _, cid := range parent.ChildIDs {
			if cid == c.ChunkID {
				found = true
			}
		}
		if !found {
			t.Errorf("parent %s ChildIDs does not list child %s", parent.ChunkID, c.ChunkID)
		}
	}
	if !sawChild {
		t.Fatal("expected at least one child chunk")
	}
}

func TestHierarchicalChunker_OffsetsWithinBounds(t *testing.T) {
	h := NewHierarchicalChunker()
	text := longParagraphs(6)
	normalizedLen := len(text)

	chunks, err := h.Chunk(text, DocMeta{DocID: "doc-2", DocType: model.DocTypeCaseStudy})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	for _, c := range chunks {
		if c.CharStart < 0 || c.CharEnd > normalizedLen || c.CharStart >= c.CharEnd {
			t.Errorf("chunk %s has invalid offsets [%d,%d) for doc length %d", c.ChunkID, c.CharStart, c.CharEnd, normalizedLen)
		}
	}
}

func TestHierarchicalChunker_EmptyTextFails(t *testing.T) {
	h := NewHierarchicalChunker()
	if _, err := h.Chunk("   ", DocMeta{DocID: "doc-3"}); err == nil {
		t.Fatal("expected error for empty document text")
	}
}
