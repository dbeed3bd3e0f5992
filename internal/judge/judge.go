// Package judge implements the LLM Judge (C13): four independent,
// structured-JSON LLM calls per case (context relevance, groundedness,
// answer relevance, overall quality), run in parallel at temperature 0 and
// backed by a persistent content-addressed cache. Grounded on
// internal/gcpclient/genai.go's adapter (now temperature-aware via
// GenerateContentAt) and on pipeline.DocIndex's one-file-per-key
// persistence idiom, generalized from "one record per doc_id" to "one
// cached response per (dimension, query, content) hash".
package judge

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/clinicalcore/retrieval-core/internal/metrics"
	"github.com/clinicalcore/retrieval-core/internal/model"
)

const judgeTemperature = 0.0

// Generator abstracts the external LLM call the judge makes, the same
// temperature-pinned shape gcpclient.GenAIAdapter.GenerateContentAt
// implements.
type Generator interface {
	GenerateContentAt(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// Judge scores (case, retrieval bundle, answer) triples across the four
// dimensions spec.md §4.14 names.
type Judge struct {
	generator Generator
	cache     Cache
	metrics   *metrics.Metrics
}

func NewJudge(generator Generator, cache Cache) *Judge {
	return &Judge{generator: generator, cache: cache}
}

// SetMetrics attaches a metrics.Metrics collector so judge cache lookups
// are observed as hits/misses. Optional.
func (j *Judge) SetMetrics(m *metrics.Metrics) {
	j.metrics = m
}

// JudgeCase scores one case's four dimensions in parallel. heuristic is the
// evaluation harness's already-computed triad score for this case, used as
// the fallback for any dimension whose judge call or parse fails.
func (j *Judge) JudgeCase(ctx context.Context, caseID, question, answer string, chunks []model.ScoredChunk, heuristic model.TriadScores) model.JudgeResult {
	result := model.JudgeResult{CaseID: caseID, FallbackReasons: map[string]string{}}

	var contextRelevance, groundedness, answerRelevance, overallQuality float64

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := j.scoreContextRelevance(gCtx, question, chunks)
		if err != nil {
			slog.Warn("judge context_relevance fell back to heuristic", "case_id", caseID, "error", err)
			result.FallbackReasons["context_relevance"] = err.Error()
			v = heuristic.ContextRelevance * 10
		}
		contextRelevance = v
		return nil
	})
	g.Go(func() error {
		v, err := j.scoreGroundedness(gCtx, question, answer, chunks)
		if err != nil {
			slog.Warn("judge groundedness fell back to heuristic", "case_id", caseID, "error", err)
			result.FallbackReasons["groundedness"] = err.Error()
			v = heuristic.Groundedness
		}
		groundedness = v
		return nil
	})
	g.Go(func() error {
		v, err := j.scoreAnswerRelevance(gCtx, question, answer)
		if err != nil {
			slog.Warn("judge answer_relevance fell back to heuristic", "case_id", caseID, "error", err)
			result.FallbackReasons["answer_relevance"] = err.Error()
			v = heuristic.AnswerRelevance * 10
		}
		answerRelevance = v
		return nil
	})
	g.Go(func() error {
		v, err := j.scoreOverallQuality(gCtx, question, answer)
		if err != nil {
			slog.Warn("judge overall_quality fell back to heuristic", "case_id", caseID, "error", err)
			result.FallbackReasons["overall_quality"] = err.Error()
			v = heuristic.Combined() * 10
		}
		overallQuality = v
		return nil
	})
	_ = g.Wait() // every goroutine above handles its own error by falling back; none propagate

	result.Scores = model.JudgeScores{
		ContextRelevance: contextRelevance,
		Groundedness:     groundedness,
		AnswerRelevance:  answerRelevance,
		OverallQuality:   overallQuality,
	}
	if len(result.FallbackReasons) == 0 {
		result.FallbackReasons = nil
	}
	return result
}

func (j *Judge) scoreContextRelevance(ctx context.Context, question string, chunks []model.ScoredChunk) (float64, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	content := contentKeyForChunks(chunks)
	raw, err := j.call(ctx, "context_relevance", question, content, contextRelevancePrompt(question, chunks))
	if err != nil {
		return 0, err
	}
	return parseContextRelevance(raw, len(chunks))
}

func (j *Judge) scoreGroundedness(ctx context.Context, question, answer string, chunks []model.ScoredChunk) (float64, error) {
	content := answer + "||" + contentKeyForChunks(chunks)
	raw, err := j.call(ctx, "groundedness", question, content, groundednessPrompt(question, answer, chunks))
	if err != nil {
		return 0, err
	}
	return parseGroundedness(raw)
}

func (j *Judge) scoreAnswerRelevance(ctx context.Context, question, answer string) (float64, error) {
	raw, err := j.call(ctx, "answer_relevance", question, answer, answerRelevancePrompt(question, answer))
	if err != nil {
		return 0, err
	}
	return parseSingleScore(raw)
}

func (j *Judge) scoreOverallQuality(ctx context.Context, question, answer string) (float64, error) {
	raw, err := j.call(ctx, "overall_quality", question, answer, overallQualityPrompt(question, answer))
	if err != nil {
		return 0, err
	}
	return parseOverallQuality(raw)
}

// call checks the cache for (dimension, query, content) before making a
// temperature-0 generation call, and populates the cache on a miss.
func (j *Judge) call(ctx context.Context, dimension, query, content, userPrompt string) (string, error) {
	key := cacheKey(dimension, query, content)

	if cached, hit, err := j.cache.Get(key); err == nil && hit {
		j.metrics.RecordJudgeCache(true)
		return cached, nil
	}
	j.metrics.RecordJudgeCache(false)

	raw, err := j.generator.GenerateContentAt(ctx, judgeSystemPrompt, userPrompt, judgeTemperature)
	if err != nil {
		return "", fmt.Errorf("judge.call[%s]: %w", dimension, err)
	}

	if err := j.cache.Put(key, raw); err != nil {
		slog.Warn("judge cache write failed", "dimension", dimension, "error", err)
	}
	return raw, nil
}

func contentKeyForChunks(chunks []model.ScoredChunk) string {
	var s string
	for _, c := range chunks {
		s += c.ChunkID + ";"
	}
	return s
}
