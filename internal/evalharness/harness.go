// Package evalharness implements the Evaluation Harness (C11): runs a set
// of query cases through the retrieval orchestrator (and, optionally, an
// external generator) and scores each case against the hand-written or
// synthetic expectations in a model.Dataset. Grounded on the teacher's
// service/selfrag.go reflection loop, generalized from a single
// generation-quality critique into the full per-case scoring pipeline
// spec.md §4.12 describes.
package evalharness

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clinicalcore/retrieval-core/internal/evidence"
	"github.com/clinicalcore/retrieval-core/internal/metrics"
	"github.com/clinicalcore/retrieval-core/internal/model"
	"github.com/clinicalcore/retrieval-core/internal/queryrouter"
)

// Citation maps an inline answer citation to the source it claims to cite.
type Citation struct {
	DocID string
	Page  int
}

// Answer is what an external generator returns for a retrieved bundle.
type Answer struct {
	Text      string
	Refused   bool
	Citations []Citation
}

// Generator abstracts the external generative LLM — out of scope for this
// core (spec.md §1), addressed only through this interface. A nil
// Generator is valid: a case with sufficient evidence is then scored as a
// non-refused answer with empty text, so only the retrieval metrics carry
// signal; a case with insufficient evidence is refused as usual.
type Generator interface {
	Generate(ctx context.Context, question string, bundle *model.RetrievalBundle) (*Answer, error)
}

// Orchestrator abstracts retrieval.Orchestrator for testability.
type Orchestrator interface {
	Retrieve(ctx context.Context, question string, policy model.RetrievalPolicy) (*model.RetrievalBundle, error)
}

// Runner executes query cases end to end and scores the result.
type Runner struct {
	router       *queryrouter.Router
	orchestrator Orchestrator
	gate         *evidence.Gate
	generator    Generator
	metrics      *metrics.Metrics

	recallThreshold    float64
	keywordThreshold   float64
	triadPassThreshold float64
}

// SetMetrics attaches a metrics.Metrics collector so each run observes
// retrieval latency and evidence-insufficient counts. Optional — a Runner
// with no metrics attached behaves exactly as before.
func (r *Runner) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// NewRunner builds a Runner. generator may be nil.
func NewRunner(orchestrator Orchestrator, gate *evidence.Gate, generator Generator, recallThreshold, keywordThreshold, triadPassThreshold float64) *Runner {
	return &Runner{
		router:             queryrouter.NewRouter(),
		orchestrator:       orchestrator,
		gate:               gate,
		generator:          generator,
		recallThreshold:    recallThreshold,
		keywordThreshold:   keywordThreshold,
		triadPassThreshold: triadPassThreshold,
	}
}

// RunCase executes one QueryCase and scores it.
func (r *Runner) RunCase(ctx context.Context, qc model.QueryCase) (model.CaseResult, error) {
	result, _, err := r.runCase(ctx, qc)
	return result, err
}

// RunCaseWithBundle is RunCase plus the retrieval bundle that produced the
// result, for callers that need the underlying chunks alongside the
// heuristic score — the LLM judge (C13) scores context relevance and
// groundedness against those same chunks, and falls back to this result's
// Triad when a judge call fails.
func (r *Runner) RunCaseWithBundle(ctx context.Context, qc model.QueryCase) (model.CaseResult, *model.RetrievalBundle, error) {
	return r.runCase(ctx, qc)
}

func (r *Runner) runCase(ctx context.Context, qc model.QueryCase) (model.CaseResult, *model.RetrievalBundle, error) {
	policy := r.router.Route(qc.Question)

	start := time.Now()
	bundle, err := r.orchestrator.Retrieve(ctx, qc.Question, policy)
	r.metrics.RecordRetrieval(string(policy.QueryType), time.Since(start).Seconds())
	if err != nil {
		return model.CaseResult{}, nil, fmt.Errorf("evalharness.RunCase[%s]: retrieve: %w", qc.ID, err)
	}

	assessment := r.gate.Evaluate(bundle.Chunks, policy.QueryType)
	if !assessment.Sufficient {
		r.metrics.RecordEvidenceInsufficient()
	}

	recall := recallAtK(bundle.Chunks, qc.ExpectedDocIDs)

	var answer Answer
	if !assessment.Sufficient {
		answer = Answer{Refused: true}
	} else if r.generator != nil {
		gen, err := r.generator.Generate(ctx, qc.Question, bundle)
		if err != nil {
			return model.CaseResult{}, nil, fmt.Errorf("evalharness.RunCase[%s]: generate: %w", qc.ID, err)
		}
		answer = *gen
	} else {
		// No generator configured: only retrieval quality can be judged.
		answer = Answer{Refused: false}
	}

	keywordCoverage := keywordCoverageOf(qc.ExpectedKeywords, answer.Text)
	citationValidity := citationValidityOf(answer.Citations, bundle.Chunks)
	refusalCorrect := answer.Refused == qc.ShouldRefuse

	triad := computeTriad(qc.Question, answer, bundle.Chunks, keywordCoverage, qc.ShouldRefuse)

	pass := recall >= r.recallThreshold &&
		keywordCoverage >= r.keywordThreshold &&
		refusalCorrect &&
		triad.Combined() >= r.triadPassThreshold

	return model.CaseResult{
		CaseID:           qc.ID,
		Pass:             pass,
		RetrievalRecall:  recall,
		KeywordCoverage:  keywordCoverage,
		CitationValidity: citationValidity,
		RefusalCorrect:   refusalCorrect,
		Triad:            triad,
		Method:           "heuristic",
		Answer:           answer.Text,
		Refused:          answer.Refused,
	}, bundle, nil
}

// recallAtK is the fraction of expectedDocIDs present among chunks.
func recallAtK(chunks []model.ScoredChunk, expectedDocIDs []string) float64 {
	if len(expectedDocIDs) == 0 {
		return 1.0
	}

	present := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		present[c.DocID] = true
	}

	found := 0
	for _, id := range expectedDocIDs {
		if present[id] {
			found++
		}
	}
	return float64(found) / float64(len(expectedDocIDs))
}

// keywordCoverageOf is the fraction of expectedKeywords found in answer,
// case-insensitive substring match.
func keywordCoverageOf(expectedKeywords []string, answer string) float64 {
	if len(expectedKeywords) == 0 {
		return 1.0
	}

	lowerAnswer := strings.ToLower(answer)
	found := 0
	for _, kw := range expectedKeywords {
		if strings.Contains(lowerAnswer, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(expectedKeywords))
}

// citationValidityOf is the fraction of citations whose (DocID, Page) pair
// names a chunk actually present in the retrieved bundle.
func citationValidityOf(citations []Citation, chunks []model.ScoredChunk) float64 {
	if len(citations) == 0 {
		return 1.0
	}

	valid := map[string]bool{}
	for _, c := range chunks {
		valid[c.DocID+"#"+strconv.Itoa(c.PageNumber)] = true
	}

	matched := 0
	for _, c := range citations {
		if valid[c.DocID+"#"+strconv.Itoa(c.Page)] {
			matched++
		}
	}
	return float64(matched) / float64(len(citations))
}
