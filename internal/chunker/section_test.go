package chunker

import (
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func TestSectionBasedChunker_CanonicalizesHeadingVariants(t *testing.T) {
	s := NewSectionBasedChunker()
	text := "# Approved Uses\n\nNewest is approved for facial rejuvenation and skin quality improvement in adults.\n\n" +
		"# Contra-Indications\n\nDo not use in patients with active skin infections or known hypersensitivity to the components."

	chunks, err := s.Chunk(text, DocMeta{DocID: "doc-1", DocType: model.DocTypeFactsheet})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}

	var sawIndications, sawContra bool
	for _, c := range chunks {
		switch c.Section {
		case "Indications":
			sawIndications = true
		case "Contraindications":
			sawContra = true
		}
	}
	if !sawIndications {
		t.Error("expected a chunk canonicalized to section 'Indications'")
	}
	if !sawContra {
		t.Error("expected a chunk canonicalized to section 'Contraindications'")
	}
}

func TestSectionBasedChunker_FlatChunkType(t *testing.T) {
	s := NewSectionBasedChunker()
	text := "# Dosage\n\nInject 2 ml per session, repeated every 4 weeks for a total of 3 sessions."

	chunks, err := s.Chunk(text, DocMeta{DocID: "doc-2", DocType: model.DocTypeBrochure})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	for _, c := range chunks {
		if c.ChunkType != model.ChunkFlat {
			t.Errorf("ChunkType = %v, want flat", c.ChunkType)
		}
		if !c.Metadata.HasProtocolInfo {
			t.Error("expected protocol info to be detected and attached")
		}
	}
}
