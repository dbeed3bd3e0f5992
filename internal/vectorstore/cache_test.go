package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func TestQueryCache_SetThenGet(t *testing.T) {
	c := NewQueryCache(time.Minute, nil)
	defer c.Stop()
	ctx := context.Background()

	vec := testVector(5)
	results := []model.ScoredChunk{{Chunk: model.Chunk{ChunkID: "chunk-1"}, Score: 0.9}}

	c.Set(ctx, vec, 10, Filter{DocType: "factsheet"}, results)

	got, ok := c.Get(ctx, vec, 10, Filter{DocType: "factsheet"})
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].ChunkID != "chunk-1" {
		t.Errorf("got %+v, want chunk-1", got)
	}
}

func TestQueryCache_DifferentFilterMisses(t *testing.T) {
	c := NewQueryCache(time.Minute, nil)
	defer c.Stop()
	ctx := context.Background()

	vec := testVector(5)
	c.Set(ctx, vec, 10, Filter{DocType: "factsheet"}, []model.ScoredChunk{{Chunk: model.Chunk{ChunkID: "chunk-1"}}})

	_, ok := c.Get(ctx, vec, 10, Filter{DocType: "protocol"})
	if ok {
		t.Error("expected miss for different filter")
	}
}

func TestQueryCache_Expiry(t *testing.T) {
	c := NewQueryCache(time.Millisecond, nil)
	defer c.Stop()
	ctx := context.Background()

	vec := testVector(5)
	c.Set(ctx, vec, 10, Filter{}, []model.ScoredChunk{{Chunk: model.Chunk{ChunkID: "chunk-1"}}})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, vec, 10, Filter{})
	if ok {
		t.Error("expected expired entry to miss")
	}
}

func TestQueryCache_InvalidateAll(t *testing.T) {
	c := NewQueryCache(time.Minute, nil)
	defer c.Stop()
	ctx := context.Background()

	vec := testVector(5)
	c.Set(ctx, vec, 10, Filter{}, []model.ScoredChunk{{Chunk: model.Chunk{ChunkID: "chunk-1"}}})
	c.InvalidateAll()

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after InvalidateAll", c.Len())
	}
}
