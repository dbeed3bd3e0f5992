package lexical

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// BM25Index is an in-memory full-text index built from the chunk corpus at
// startup and rebuilt after every ingest. The old index keeps serving
// reads until the new one finishes building, so a Rebuild never produces a
// window where Search sees a partial corpus.
type BM25Index struct {
	mu    sync.RWMutex
	index bleve.Index
	byID  map[string]model.Chunk
}

// NewBM25Index builds an empty index. Call Rebuild to populate it.
func NewBM25Index() (*BM25Index, error) {
	idx, err := newBleveIndex()
	if err != nil {
		return nil, fmt.Errorf("lexical.NewBM25Index: %w", err)
	}
	return &BM25Index{index: idx, byID: make(map[string]model.Chunk)}, nil
}

func newBleveIndex() (bleve.Index, error) {
	indexMapping := mapping.NewIndexMapping()

	docMapping := mapping.NewDocumentMapping()
	textField := mapping.NewTextFieldMapping()
	textField.Analyzer = "en"
	docMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = docMapping
	return bleve.NewMemOnly(indexMapping)
}

// Rebuild builds a fresh in-memory index from chunks and atomically swaps
// it in, so concurrent Search calls never observe a half-populated index.
func (b *BM25Index) Rebuild(ctx context.Context, chunks []model.Chunk) error {
	newIndex, err := newBleveIndex()
	if err != nil {
		return fmt.Errorf("lexical.Rebuild: %w", err)
	}

	byID := make(map[string]model.Chunk, len(chunks))
	batch := newIndex.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ChunkID, map[string]any{"text": c.Text}); err != nil {
			return fmt.Errorf("lexical.Rebuild: index %s: %w", c.ChunkID, err)
		}
		byID[c.ChunkID] = c
		if batch.Size() >= 500 {
			if err := newIndex.Batch(batch); err != nil {
				return fmt.Errorf("lexical.Rebuild: flush batch: %w", err)
			}
			batch = newIndex.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := newIndex.Batch(batch); err != nil {
			return fmt.Errorf("lexical.Rebuild: flush final batch: %w", err)
		}
	}

	b.mu.Lock()
	old := b.index
	b.index = newIndex
	b.byID = byID
	b.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search finds the topK chunks whose text best matches query under
// Bleve's default English-analyzed BM25-style scoring.
func (b *BM25Index) Search(ctx context.Context, query string, topK int) ([]model.ScoredChunk, error) {
	b.mu.RLock()
	idx := b.index
	byID := b.byID
	b.mu.RUnlock()

	q := bleve.NewMatchQuery(query)
	q.SetField("text")

	req := bleve.NewSearchRequest(q)
	req.Size = topK

	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical.Search: %w", err)
	}

	out := make([]model.ScoredChunk, 0, len(res.Hits))
	for _, hit := range res.Hits {
		chunk, ok := byID[hit.ID]
		if !ok {
			continue
		}
		sc := model.ScoredChunk{Chunk: chunk}
		sc.Origin = model.OriginLexical
		sc.LexicalScore = hit.Score
		sc.Score = hit.Score
		out = append(out, sc)
	}
	return out, nil
}

// Count reports the number of chunks currently indexed.
func (b *BM25Index) Count(ctx context.Context) (int, error) {
	b.mu.RLock()
	idx := b.index
	b.mu.RUnlock()

	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("lexical.Count: %w", err)
	}
	return int(n), nil
}

// Close releases the underlying index resources.
func (b *BM25Index) Close() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return nil
	}
	return b.index.Close()
}

var _ Index = (*BM25Index)(nil)
