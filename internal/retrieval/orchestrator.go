// Package retrieval implements the Retrieval Orchestrator (C9): the
// hybrid search → hierarchy expansion → boost → rerank pipeline that
// turns a question and a query-router policy into a ranked evidence
// bundle. Grounded on the teacher's service/retriever.go — same
// errgroup-concurrent vector+lexical branches, same re-rank-then-return
// shape — generalized from a fixed reciprocal-rank-fusion/weighted-sum
// formula to spec.md §4.9's policy-weighted fusion, hierarchy expansion,
// and C4 reranking.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/clinicalcore/retrieval-core/internal/model"
	"github.com/clinicalcore/retrieval-core/internal/vectorstore"
)

// hierarchyBoostFactor is the multiplicative boost applied when a parent
// and at least one of its children both surface as candidates.
const hierarchyBoostFactor = 1.10

// rerankPoolMultiplier sizes the rerank pool relative to finalK, per
// spec.md §4.9 step 7.
const rerankPoolMultiplier = 3

// Embedder abstracts the query-embedding half of the Embedding Gateway.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher abstracts the vector store's semantic query and
// parent/child fetch operations.
type VectorSearcher interface {
	Query(ctx context.Context, vec []float32, topK int, filter vectorstore.Filter) ([]model.ScoredChunk, error)
	Fetch(ctx context.Context, chunkIDs []string) ([]model.Chunk, error)
}

// LexicalSearcher abstracts the BM25 index's keyword search.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]model.ScoredChunk, error)
}

// Reranker abstracts the reranker chain.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []model.ScoredChunk) ([]model.ScoredChunk, error)
}

// Orchestrator runs the hybrid retrieval algorithm.
type Orchestrator struct {
	embedder Embedder
	vector   VectorSearcher
	lexical  LexicalSearcher
	reranker Reranker
	finalK   int
}

// NewOrchestrator builds an Orchestrator. finalK is the number of chunks
// ultimately returned per query (spec.md default 5).
func NewOrchestrator(embedder Embedder, vector VectorSearcher, lexical LexicalSearcher, reranker Reranker, finalK int) *Orchestrator {
	if finalK <= 0 {
		finalK = 5
	}
	return &Orchestrator{embedder: embedder, vector: vector, lexical: lexical, reranker: reranker, finalK: finalK}
}

// Retrieve runs the full nine-step algorithm for question under policy.
func (o *Orchestrator) Retrieve(ctx context.Context, question string, policy model.RetrievalPolicy) (*model.RetrievalBundle, error) {
	expandedQuery := question
	if len(policy.QueryExpansions) > 0 {
		expandedQuery = question + " " + strings.Join(policy.QueryExpansions, " ")
	}

	multiplier := policy.RetrievalMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	branchBudget := multiplier * o.finalK

	var semantic, lexical []model.ScoredChunk
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, err := o.embedder.EmbedQuery(gCtx, expandedQuery)
		if err != nil {
			return fmt.Errorf("retrieval.Retrieve: embed query: %w", err)
		}
		results, err := o.vector.Query(gCtx, vec, branchBudget, vectorstore.Filter{})
		if err != nil {
			return fmt.Errorf("retrieval.Retrieve: vector query: %w", err)
		}
		semantic = results
		return nil
	})
	g.Go(func() error {
		results, err := o.lexical.Search(gCtx, expandedQuery, branchBudget)
		if err != nil {
			return fmt.Errorf("retrieval.Retrieve: lexical search: %w", err)
		}
		lexical = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("retrieval branches complete", "semantic_candidates", len(semantic), "lexical_candidates", len(lexical))

	fused := fuse(semantic, lexical, policy.VectorWeight, policy.LexicalWeight)
	if len(fused) == 0 {
		return &model.RetrievalBundle{
			Chunks:   []model.ScoredChunk{},
			Evidence: model.EvidenceAssessment{QueryType: policy.QueryType},
			Details:  model.RetrievalDetails{QueryType: policy.QueryType, Expansions: policy.QueryExpansions, CandidateCount: 0},
		}, nil
	}

	if err := o.expandHierarchy(ctx, fused); err != nil {
		return nil, fmt.Errorf("retrieval.Retrieve: hierarchy expansion: %w", err)
	}

	applyBoosts(fused, policy.Boosts, strings.ToLower(question))

	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })

	rerankPoolSize := rerankPoolMultiplier * o.finalK
	if rerankPoolSize > len(fused) {
		rerankPoolSize = len(fused)
	}
	pool := fused[:rerankPoolSize]
	rest := fused[rerankPoolSize:]

	rerankerUnavailable := false
	if o.reranker != nil {
		reranked, err := o.rerank(ctx, question, pool)
		if err != nil {
			return nil, fmt.Errorf("retrieval.Retrieve: rerank: %w", err)
		}
		if reranked == nil {
			rerankerUnavailable = true
		} else {
			pool = reranked
			sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
		}
	} else {
		rerankerUnavailable = true
	}

	ordered := append(pool, rest...)
	if len(ordered) > o.finalK {
		ordered = ordered[:o.finalK]
	}

	lowConfidence := allScoresNegative(ordered)

	return &model.RetrievalBundle{
		Chunks:   ordered,
		Evidence: model.EvidenceAssessment{QueryType: policy.QueryType},
		Details:  buildDetails(policy, ordered, len(fused), rerankerUnavailable, lowConfidence),
	}, nil
}

// rerank augments each candidate's text with its parent context before
// scoring (spec.md §4.9 step 7: "the query plus (parent_context + \n\n +
// text)"), then copies the resulting scores back onto the original
// candidates so the returned chunk text is never the augmented copy.
// Returns nil, nil if the chain left every candidate unreranked (the
// final lexical-overlap tier failing is the only way that happens, and
// signals the caller to mark the bundle reranker-unavailable).
func (o *Orchestrator) rerank(ctx context.Context, query string, pool []model.ScoredChunk) ([]model.ScoredChunk, error) {
	augmented := make([]model.ScoredChunk, len(pool))
	for i, c := range pool {
		augmented[i] = c
		if c.ParentContext != "" {
			augmented[i].Text = c.ParentContext + "\n\n" + c.Text
		}
	}

	scored, err := o.reranker.Rerank(ctx, query, augmented)
	if err != nil {
		return nil, err
	}

	anyReranked := false
	out := make([]model.ScoredChunk, len(pool))
	for i, c := range pool {
		out[i] = c
		if i < len(scored) && scored[i].Reranked {
			out[i].OriginalScore = out[i].Score
			out[i].RerankScore = scored[i].RerankScore
			out[i].Score = scored[i].RerankScore
			out[i].Reranked = true
			out[i].AppliedBoosts = append(out[i].AppliedBoosts, scored[i].AppliedBoosts...)
			anyReranked = true
		}
	}
	if !anyReranked {
		return nil, nil
	}
	return out, nil
}

func allScoresNegative(chunks []model.ScoredChunk) bool {
	if len(chunks) == 0 {
		return false
	}
	for _, c := range chunks {
		if c.Score >= 0 {
			return false
		}
	}
	return true
}

func buildDetails(policy model.RetrievalPolicy, chunks []model.ScoredChunk, candidateCount int, rerankerUnavailable, lowConfidence bool) model.RetrievalDetails {
	details := model.RetrievalDetails{
		QueryType:           policy.QueryType,
		Expansions:          policy.QueryExpansions,
		CandidateCount:      candidateCount,
		RerankerUnavailable: rerankerUnavailable,
		LowConfidence:       lowConfidence,
	}
	for _, c := range chunks {
		details.PerCandidate = append(details.PerCandidate, model.CandidateDetail{
			ChunkID:       c.ChunkID,
			Origin:        c.Origin,
			FusedScore:    model.DisplayScore(c.FusedScore),
			RerankScore:   c.RerankScore,
			AppliedBoosts: c.AppliedBoosts,
		})
	}
	return details
}
