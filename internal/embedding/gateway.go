// Package embedding implements the Embedding Gateway (C1): text → a
// fixed-dimension vector, with segmentation for long inputs, mean-pooling,
// and a content-hash-keyed cache.
package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/clinicalcore/retrieval-core/internal/cache"
	"github.com/clinicalcore/retrieval-core/internal/metrics"
	"github.com/clinicalcore/retrieval-core/internal/rediscache"
	"github.com/clinicalcore/retrieval-core/internal/textproc"
)

// DocumentEmbedder embeds chunk text for storage (RETRIEVAL_DOCUMENT task
// type on Vertex AI; see gcpclient.EmbeddingAdapter.EmbedTexts).
type DocumentEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryEmbedder embeds a user query for search (RETRIEVAL_QUERY task type).
type QueryEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client is the full provider contract the Gateway wraps.
type Client interface {
	DocumentEmbedder
	QueryEmbedder
}

// Gateway implements the Embedding Gateway contract: embed(text) → vector,
// embed_batch(texts) → vectors, with segmentation, mean-pooling, and
// caching. Never truncates silently.
type Gateway struct {
	client       Client
	cache        *cache.EmbeddingCache
	l2           *rediscache.Tier
	dimension    int
	maxSegments  int
	segmentChars int
	batchSize    int
	metrics      *metrics.Metrics
}

// SetMetrics attaches a metrics.Metrics collector so cache lookups are
// observed as hits/misses. Optional.
func (g *Gateway) SetMetrics(m *metrics.Metrics) {
	g.metrics = m
}

// Config configures a Gateway. Zero values fall back to SPEC_FULL's
// defaults (dimension 1536, max_segments 8, batch size 250 matching the
// provider's per-call ceiling). RedisTier is an optional second-tier
// cache shared across process restarts and instances; a nil tier is
// equivalent to omitting it.
type Config struct {
	Dimension    int
	MaxSegments  int
	SegmentChars int
	BatchSize    int
	Cache        *cache.EmbeddingCache
	RedisTier    *rediscache.Tier
}

func NewGateway(client Client, cfg Config) *Gateway {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	if cfg.MaxSegments <= 0 {
		cfg.MaxSegments = 8
	}
	if cfg.SegmentChars <= 0 {
		cfg.SegmentChars = 2000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 250
	}
	return &Gateway{
		client:       client,
		cache:        cfg.Cache,
		l2:           cfg.RedisTier,
		dimension:    cfg.Dimension,
		maxSegments:  cfg.MaxSegments,
		segmentChars: cfg.SegmentChars,
		batchSize:    cfg.BatchSize,
	}
}

// l2Get consults the Redis tier, populating the in-process cache on hit so
// subsequent calls on this instance avoid the network round trip.
func (g *Gateway) l2Get(ctx context.Context, key string) ([]float32, bool) {
	b, ok := g.l2.Get(ctx, key)
	if !ok {
		return nil, false
	}
	vec := decodeVector(b)
	if g.cache != nil {
		g.cache.Set(key, vec)
	}
	return vec, true
}

func (g *Gateway) l2Set(ctx context.Context, key string, vec []float32) {
	g.l2.Set(ctx, key, encodeVector(vec))
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec
}

// EmbedQuery embeds a single query string, consulting the cache first.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.embedOne(ctx, text, g.client.Embed)
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// EmbedDocument embeds a single chunk's text for storage.
func (g *Gateway) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return g.embedOne(ctx, text, g.client.EmbedTexts)
}

// EmbedBatch embeds many chunk texts for storage, batching at the
// provider's per-call ceiling and segmenting any individual text that
// exceeds SegmentChars.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	result := make([][]float32, len(texts))

	// Texts that fit in one segment go through the provider in batches;
	// oversized texts are segmented and embedded individually so their
	// mean-pooled result doesn't get mixed into an unrelated sub-batch.
	var plainIdx []int
	var plainTexts []string

	for i, t := range texts {
		if len(t) <= g.segmentChars {
			plainIdx = append(plainIdx, i)
			plainTexts = append(plainTexts, t)
			continue
		}
		vec, err := g.EmbedDocument(ctx, t)
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}

	for start := 0; start < len(plainTexts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(plainTexts) {
			end = len(plainTexts)
		}
		sub := plainTexts[start:end]

		cached := make([]bool, len(sub))
		vectors := make([][]float32, len(sub))
		var toFetch []string
		var toFetchPos []int
		for i, t := range sub {
			key := queryHash(t)
			if g.cache != nil {
				if v, ok := g.cache.Get(key); ok {
					vectors[i] = v
					cached[i] = true
					g.metrics.RecordEmbeddingCache(true)
					continue
				}
			}
			if v, ok := g.l2Get(ctx, key); ok {
				vectors[i] = v
				cached[i] = true
				g.metrics.RecordEmbeddingCache(true)
				continue
			}
			g.metrics.RecordEmbeddingCache(false)
			toFetch = append(toFetch, t)
			toFetchPos = append(toFetchPos, i)
		}

		if len(toFetch) > 0 {
			fetched, err := g.client.EmbedTexts(ctx, toFetch)
			if err != nil {
				return nil, &EmbeddingError{Op: "EmbedBatch", Err: err}
			}
			if len(fetched) != len(toFetch) {
				return nil, &EmbeddingError{Op: "EmbedBatch", Err: fmt.Errorf("got %d vectors for %d texts", len(fetched), len(toFetch))}
			}
			for j, vec := range fetched {
				if err := validateDimension(vec, g.dimension); err != nil {
					return nil, &EmbeddingError{Op: "EmbedBatch", Err: err}
				}
				norm := l2Normalize(vec)
				pos := toFetchPos[j]
				vectors[pos] = norm
				if g.cache != nil {
					g.cache.Set(queryHash(toFetch[j]), norm)
				}
				g.l2Set(ctx, queryHash(toFetch[j]), norm)
			}
		}

		for i, vec := range vectors {
			result[plainIdx[start+i]] = vec
		}
	}

	return result, nil
}

// embedOne handles the single-text path shared by EmbedQuery and
// EmbedDocument: cache lookup, segmentation for oversized input, embed
// (via fn), mean-pool, cache store.
func (g *Gateway) embedOne(ctx context.Context, text string, fn func(context.Context, []string) ([][]float32, error)) ([]float32, error) {
	key := queryHash(text)
	if g.cache != nil {
		if v, ok := g.cache.Get(key); ok {
			g.metrics.RecordEmbeddingCache(true)
			return v, nil
		}
	}
	if v, ok := g.l2Get(ctx, key); ok {
		g.metrics.RecordEmbeddingCache(true)
		return v, nil
	}
	g.metrics.RecordEmbeddingCache(false)

	segments := g.segment(text)
	if len(segments) > g.maxSegments {
		return nil, ErrInputTooLarge
	}

	vectors, err := fn(ctx, segments)
	if err != nil {
		return nil, &EmbeddingError{Op: "embed", Err: err}
	}
	if len(vectors) != len(segments) {
		return nil, &EmbeddingError{Op: "embed", Err: fmt.Errorf("got %d vectors for %d segments", len(vectors), len(segments))}
	}
	for _, v := range vectors {
		if err := validateDimension(v, g.dimension); err != nil {
			return nil, &EmbeddingError{Op: "embed", Err: err}
		}
	}

	pooled := meanPool(vectors)
	pooled = l2Normalize(pooled)

	if g.cache != nil {
		g.cache.Set(key, pooled)
	}
	g.l2Set(ctx, key, pooled)
	return pooled, nil
}

// segment splits text on sentence/paragraph boundaries into at most
// maxSegments pieces of at most segmentChars each. A text already within
// segmentChars returns as a single "segment" (no-op split).
func (g *Gateway) segment(text string) []string {
	if len(text) <= g.segmentChars {
		return []string{text}
	}
	segs := textproc.BuildSegments(text, g.segmentChars, g.segmentChars/4, 0)
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

func validateDimension(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("vector has %d dimensions, want %d", len(vec), want)
	}
	return nil
}

// meanPool averages a set of equal-length vectors element-wise.
func meanPool(vectors [][]float32) []float32 {
	if len(vectors) == 1 {
		return vectors[0]
	}
	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, v := range vectors {
		for i, x := range v {
			sums[i] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(vectors))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out
}

// l2Normalize normalizes a vector to unit length.
func l2Normalize(vec []float32) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func queryHash(text string) string {
	return "emb:" + textproc.ContentHash(text)[:32]
}
