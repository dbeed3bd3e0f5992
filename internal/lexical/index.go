// Package lexical implements the Lexical Index (C3): a BM25-ranked
// full-text index over chunk text, queried alongside the vector store in
// the hybrid retrieval fusion step.
package lexical

import (
	"context"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// Index is the Lexical Index contract: add the chunk corpus, search by
// keyword, and report size for parity checks against the vector store
// (invariant I3 — every indexed chunk must appear in both).
type Index interface {
	// Rebuild replaces the index contents with chunks in one atomic swap;
	// readers never observe a partially-built index.
	Rebuild(ctx context.Context, chunks []model.Chunk) error
	// Search returns the topK chunks best matching query, with Score set
	// to the raw BM25/rank value (not yet min-max normalized).
	Search(ctx context.Context, query string, topK int) ([]model.ScoredChunk, error)
	// Count reports how many chunks are currently indexed.
	Count(ctx context.Context) (int, error)
}
