package synthetic

import (
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func TestSampleChunks_SpreadsAcrossBuckets(t *testing.T) {
	all := []model.Chunk{
		{ChunkID: "a1", DocID: "doc-a", ChunkType: model.ChunkFlat, Section: "intro"},
		{ChunkID: "a2", DocID: "doc-a", ChunkType: model.ChunkFlat, Section: "intro"},
		{ChunkID: "a3", DocID: "doc-a", ChunkType: model.ChunkFlat, Section: "intro"},
		{ChunkID: "b1", DocID: "doc-b", ChunkType: model.ChunkFlat, Section: "dosing"},
	}

	sample := sampleChunks(all, 2)
	if len(sample) != 2 {
		t.Fatalf("len(sample) = %d, want 2", len(sample))
	}
	docs := map[string]bool{}
	for _, c := range sample {
		docs[c.DocID] = true
	}
	if len(docs) != 2 {
		t.Errorf("expected the sample to draw from both buckets before repeating one, got docs=%v", docs)
	}
}

func TestSampleChunks_CapsAtAvailable(t *testing.T) {
	all := []model.Chunk{{ChunkID: "a1", DocID: "doc-a"}}
	sample := sampleChunks(all, 10)
	if len(sample) != 1 {
		t.Errorf("len(sample) = %d, want 1", len(sample))
	}
}

func TestSampleChunks_ZeroOrEmpty(t *testing.T) {
	if sample := sampleChunks(nil, 5); sample != nil {
		t.Errorf("sampleChunks(nil, 5) = %v, want nil", sample)
	}
	all := []model.Chunk{{ChunkID: "a1"}}
	if sample := sampleChunks(all, 0); sample != nil {
		t.Errorf("sampleChunks(all, 0) = %v, want nil", sample)
	}
}
