package vectorstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func setupStore(t *testing.T) (*Store, func()) {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, dbURL, 5)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	migrationSQL, err := os.ReadFile("../../migrations/001_initial_schema.up.sql")
	if err != nil {
		pool.Close()
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(migrationSQL)); err != nil {
		pool.Close()
		t.Fatalf("apply migration: %v", err)
	}

	docID := "doc-store-test"
	if _, err := pool.Exec(ctx, `
		INSERT INTO documents (doc_id, doc_type, source_path, content_hash)
		VALUES ($1, 'factsheet', 'test.pdf', 'hash')
		ON CONFLICT (doc_id) DO NOTHING`, docID); err != nil {
		pool.Close()
		t.Fatalf("seed document: %v", err)
	}

	return NewStore(pool, nil), func() { pool.Close() }
}

func testVector(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1.0
	return v
}

func TestStore_UpsertAndQuery(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	chunks := []model.ChunkWithVector{
		{
			Chunk: model.Chunk{
				ChunkID: "chunk-a", DocID: "doc-store-test", DocType: model.DocTypeFactsheet,
				Text: "Newest is indicated for facial rejuvenation.", ChunkType: model.ChunkFlat,
				Metadata: model.ChunkMetadata{Anatomy: "face", Product: "newest"},
			},
			Embedding: testVector(100),
		},
		{
			Chunk: model.Chunk{
				ChunkID: "chunk-b", DocID: "doc-store-test", DocType: model.DocTypeFactsheet,
				Text: "Plinest is indicated for hand rejuvenation.", ChunkType: model.ChunkFlat,
				Metadata: model.ChunkMetadata{Anatomy: "hand", Product: "plinest"},
			},
			Embedding: testVector(200),
		},
	}

	if err := store.UpsertBatch(ctx, chunks); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	results, err := store.Query(ctx, testVector(100), 5, Filter{})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	found := false
	for _, r := range results {
		if r.ChunkID == "chunk-a" && r.Score > 0.99 {
			found = true
		}
	}
	if !found {
		t.Error("expected chunk-a as near-exact match")
	}
}

func TestStore_QueryFiltersByProduct(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	chunks := []model.ChunkWithVector{
		{
			Chunk: model.Chunk{
				ChunkID: "chunk-c", DocID: "doc-store-test", DocType: model.DocTypeFactsheet,
				Text: "Sunekos protocol details.", ChunkType: model.ChunkFlat,
				Metadata: model.ChunkMetadata{Product: "sunekos"},
			},
			Embedding: testVector(300),
		},
	}
	if err := store.UpsertBatch(ctx, chunks); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	results, err := store.Query(ctx, testVector(300), 5, Filter{Product: "profhilo"})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	for _, r := range results {
		if r.ChunkID == "chunk-c" {
			t.Error("chunk-c should be excluded by product filter mismatch")
		}
	}
}

func TestStore_DeleteByDocID(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	chunks := []model.ChunkWithVector{
		{Chunk: model.Chunk{ChunkID: "chunk-d", DocID: "doc-store-test", DocType: model.DocTypeFactsheet, Text: "x", ChunkType: model.ChunkFlat}, Embedding: testVector(400)},
	}
	if err := store.UpsertBatch(ctx, chunks); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	if err := store.DeleteByDocID(ctx, "doc-store-test"); err != nil {
		t.Fatalf("DeleteByDocID() error: %v", err)
	}

	count, err := store.CountByDocID(ctx, "doc-store-test")
	if err != nil {
		t.Fatalf("CountByDocID() error: %v", err)
	}
	if count != 0 {
		t.Errorf("count after delete = %d, want 0", count)
	}
}

func TestStore_UpsertBatch_Empty(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	if err := store.UpsertBatch(context.Background(), nil); err != nil {
		t.Fatalf("UpsertBatch(empty) should succeed: %v", err)
	}
}

func TestStore_UpsertDocument_ThenChunkInsertSatisfiesForeignKey(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	doc := model.Document{
		DocID:       "doc-fresh",
		DocType:     model.DocTypeProtocol,
		SourcePath:  "fresh.pdf",
		ContentHash: "hash-fresh",
		PageCount:   3,
		ChunkCount:  0,
		IndexStatus: model.IndexProcessing,
	}
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("UpsertDocument() error: %v", err)
	}

	chunks := []model.ChunkWithVector{
		{Chunk: model.Chunk{ChunkID: "chunk-fresh-1", DocID: "doc-fresh", DocType: model.DocTypeProtocol, Text: "x", ChunkType: model.ChunkFlat}, Embedding: testVector(500)},
	}
	if err := store.UpsertBatch(ctx, chunks); err != nil {
		t.Fatalf("UpsertBatch() after UpsertDocument() error: %v", err)
	}

	if err := store.SetDocumentStatus(ctx, "doc-fresh", model.IndexIndexed, len(chunks)); err != nil {
		t.Fatalf("SetDocumentStatus() error: %v", err)
	}

	// Re-running UpsertDocument for the same doc_id must not violate the
	// primary key — re-ingestion upserts rather than inserts.
	doc.IndexStatus = model.IndexIndexed
	doc.ChunkCount = 1
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("UpsertDocument() re-upsert error: %v", err)
	}
}
