package lexical

import (
	"context"
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func TestBM25Index_RebuildAndSearch(t *testing.T) {
	idx, err := NewBM25Index()
	if err != nil {
		t.Fatalf("NewBM25Index() error: %v", err)
	}
	defer idx.Close()

	chunks := []model.Chunk{
		{ChunkID: "c1", Text: "Newest is indicated for facial rejuvenation and skin quality."},
		{ChunkID: "c2", Text: "Plinest is indicated for hand rejuvenation and skin elasticity."},
		{ChunkID: "c3", Text: "Dosage: inject 2 ml every 4 weeks for 3 sessions."},
	}

	if err := idx.Rebuild(context.Background(), chunks); err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}

	count, err := idx.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	results, err := idx.Search(context.Background(), "facial rejuvenation", 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one hit")
	}
	if results[0].ChunkID != "c1" {
		t.Errorf("top hit = %q, want c1", results[0].ChunkID)
	}
	if results[0].Origin != model.OriginLexical {
		t.Errorf("Origin = %q, want lexical", results[0].Origin)
	}
}

func TestBM25Index_RebuildReplacesOldCorpus(t *testing.T) {
	idx, err := NewBM25Index()
	if err != nil {
		t.Fatalf("NewBM25Index() error: %v", err)
	}
	defer idx.Close()

	if err := idx.Rebuild(context.Background(), []model.Chunk{
		{ChunkID: "old-1", Text: "stale content about hand rejuvenation"},
	}); err != nil {
		t.Fatalf("first Rebuild() error: %v", err)
	}

	if err := idx.Rebuild(context.Background(), []model.Chunk{
		{ChunkID: "new-1", Text: "fresh content about facial treatment"},
	}); err != nil {
		t.Fatalf("second Rebuild() error: %v", err)
	}

	count, _ := idx.Count(context.Background())
	if count != 1 {
		t.Errorf("Count() after rebuild = %d, want 1", count)
	}

	results, err := idx.Search(context.Background(), "hand rejuvenation", 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	for _, r := range results {
		if r.ChunkID == "old-1" {
			t.Error("stale chunk from before rebuild should not be searchable")
		}
	}
}

func TestBM25Index_EmptyQuery(t *testing.T) {
	idx, err := NewBM25Index()
	if err != nil {
		t.Fatalf("NewBM25Index() error: %v", err)
	}
	defer idx.Close()

	if err := idx.Rebuild(context.Background(), nil); err != nil {
		t.Fatalf("Rebuild(empty) error: %v", err)
	}
	count, _ := idx.Count(context.Background())
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}
}
