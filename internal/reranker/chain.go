package reranker

import (
	"context"
	"log/slog"

	"github.com/clinicalcore/retrieval-core/internal/metrics"
	"github.com/clinicalcore/retrieval-core/internal/model"
)

// Chain tries each tier in order and uses the first one that succeeds.
// Every candidate gets RerankScore set and Reranked = true once a tier
// scores it; OriginalScore preserves the fused score the tier overwrote.
type Chain struct {
	tiers   []Tier
	metrics *metrics.Metrics
}

func NewChain(tiers ...Tier) *Chain {
	return &Chain{tiers: tiers}
}

// SetMetrics attaches a metrics.Metrics collector so each Rerank call
// records which tier in the chain actually served it. Optional.
func (c *Chain) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// Rerank scores candidates against query using the first tier that
// returns one score per candidate without an error; any tier error, not
// only ErrUnavailable, falls through to the next tier.
// The last tier (lexical overlap) must never return an error.
func (c *Chain) Rerank(ctx context.Context, query string, candidates []model.ScoredChunk) ([]model.ScoredChunk, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	for _, tier := range c.tiers {
		scores, err := tier.Score(ctx, query, candidates)
		if err != nil {
			slog.Warn("reranker tier unavailable, falling back", "tier", tier.Name(), "error", err)
			continue
		}
		if len(scores) != len(candidates) {
			slog.Warn("reranker tier returned mismatched score count, falling back",
				"tier", tier.Name(), "got", len(scores), "want", len(candidates))
			continue
		}

		out := make([]model.ScoredChunk, len(candidates))
		for i, cand := range candidates {
			cand.OriginalScore = cand.Score
			cand.RerankScore = scores[i]
			cand.Score = scores[i]
			cand.Reranked = true
			cand.AppliedBoosts = append(cand.AppliedBoosts, "rerank:"+tier.Name())
			out[i] = cand
		}
		c.metrics.RecordRerankerTier(tier.Name())
		return out, nil
	}

	// Every tier failed (should only happen if the caller supplied no
	// tiers at all — the lexical-overlap tier is designed to always
	// succeed). Return candidates unreranked rather than erroring, since
	// the orchestrator can still serve fused-score ranking.
	return candidates, nil
}
