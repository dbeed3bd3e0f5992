// Package reranker implements the Reranker (C4): re-scores a candidate
// set against the query using an ordered fallback chain of tiers that ends
// in a lexical-overlap heuristic that never fails, so a down provider
// degrades the ranking rather than the request. registry.WithReranker
// wires at most one HTTP cross-encoder tier ahead of the lexical tier; no
// local-model tier is wired.
package reranker

import (
	"context"
	"errors"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// ErrUnavailable signals that a reranker tier could not score the
// candidates (timeout, non-2xx response, or not configured) and the chain
// should fall through to the next tier.
var ErrUnavailable = errors.New("reranker: tier unavailable")

// Tier scores a query against candidates, returning scores in the same
// order as candidates. A tier never truncates or reorders the slice
// itself — Chain does that once scores are assigned.
type Tier interface {
	Name() string
	Score(ctx context.Context, query string, candidates []model.ScoredChunk) ([]float64, error)
}
