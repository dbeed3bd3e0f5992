package embedding

import (
	"time"

	"github.com/clinicalcore/retrieval-core/internal/cache"
)

// DefaultCacheTTL matches the teacher's query-embedding cache default; the
// gateway caches both query and document embeddings under the same policy
// since both are expensive provider calls keyed by exact content hash.
func DefaultCacheTTL() time.Duration {
	return cache.DefaultEmbeddingTTL()
}

// NewCache constructs the TTL cache a Gateway should be given.
func NewCache(ttl time.Duration) *cache.EmbeddingCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL()
	}
	return cache.NewEmbeddingCache(ttl)
}
