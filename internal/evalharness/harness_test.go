package evalharness

import (
	"context"
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/evidence"
	"github.com/clinicalcore/retrieval-core/internal/model"
)

type fakeOrchestrator struct {
	bundle *model.RetrievalBundle
	err    error
}

func (f *fakeOrchestrator) Retrieve(ctx context.Context, question string, policy model.RetrievalPolicy) (*model.RetrievalBundle, error) {
	return f.bundle, f.err
}

type fakeGenerator struct {
	answer *Answer
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, question string, bundle *model.RetrievalBundle) (*Answer, error) {
	return f.answer, f.err
}

func strongChunk(docID string, page int, score float64) model.ScoredChunk {
	return model.ScoredChunk{Chunk: model.Chunk{DocID: docID, PageNumber: page, Text: "Sculptra is injected at 2ml per session."}, Score: score}
}

func TestRunner_RunCase_SufficientEvidenceWithGenerator(t *testing.T) {
	bundle := &model.RetrievalBundle{Chunks: []model.ScoredChunk{strongChunk("doc-1", 3, 0.8)}}
	orch := &fakeOrchestrator{bundle: bundle}
	gate := evidence.NewGate(0.50)
	gen := &fakeGenerator{answer: &Answer{
		Text:      "Sculptra is injected at 2ml per session [1].",
		Citations: []Citation{{DocID: "doc-1", Page: 3}},
	}}

	runner := NewRunner(orch, gate, gen, 0.5, 0.3, 0.70)

	qc := model.QueryCase{
		ID:               "case-1",
		Question:         "What dosage of sculptra is used?",
		ExpectedDocIDs:   []string{"doc-1"},
		ExpectedKeywords: []string{"sculptra", "2ml"},
		ShouldRefuse:     false,
	}

	res, err := runner.RunCase(context.Background(), qc)
	if err != nil {
		t.Fatalf("RunCase() error: %v", err)
	}

	if res.RetrievalRecall != 1.0 {
		t.Errorf("RetrievalRecall = %v, want 1.0", res.RetrievalRecall)
	}
	if res.KeywordCoverage != 1.0 {
		t.Errorf("KeywordCoverage = %v, want 1.0", res.KeywordCoverage)
	}
	if res.CitationValidity != 1.0 {
		t.Errorf("CitationValidity = %v, want 1.0", res.CitationValidity)
	}
	if !res.RefusalCorrect || res.Refused {
		t.Errorf("expected a non-refused, correct case")
	}
	if !res.Pass {
		t.Errorf("expected case to pass, got triad=%+v recall=%v kw=%v", res.Triad, res.RetrievalRecall, res.KeywordCoverage)
	}
}

func TestRunner_RunCase_InsufficientEvidenceRefusesWithoutCallingGenerator(t *testing.T) {
	bundle := &model.RetrievalBundle{Chunks: []model.ScoredChunk{strongChunk("doc-1", 1, 0.1)}}
	orch := &fakeOrchestrator{bundle: bundle}
	gate := evidence.NewGate(0.50)
	gen := &fakeGenerator{answer: &Answer{Text: "should not be called"}}

	runner := NewRunner(orch, gate, gen, 0.5, 0.3, 0.70)

	qc := model.QueryCase{
		ID:           "case-2",
		Question:     "What is the untested experimental protocol?",
		ShouldRefuse: true,
	}

	res, err := runner.RunCase(context.Background(), qc)
	if err != nil {
		t.Fatalf("RunCase() error: %v", err)
	}

	if !res.Refused {
		t.Error("expected refusal when evidence is insufficient")
	}
	if !res.RefusalCorrect {
		t.Error("expected RefusalCorrect true (case expects a refusal)")
	}
	if !res.Pass {
		t.Errorf("expected case to pass on a correct refusal, got %+v", res)
	}
}

func TestRunner_RunCase_IncorrectRefusalFails(t *testing.T) {
	bundle := &model.RetrievalBundle{Chunks: []model.ScoredChunk{strongChunk("doc-1", 1, 0.1)}}
	orch := &fakeOrchestrator{bundle: bundle}
	gate := evidence.NewGate(0.50)

	runner := NewRunner(orch, gate, nil, 0.5, 0.3, 0.70)

	qc := model.QueryCase{ID: "case-3", Question: "What dosage of sculptra is used?", ShouldRefuse: false}

	res, err := runner.RunCase(context.Background(), qc)
	if err != nil {
		t.Fatalf("RunCase() error: %v", err)
	}
	if res.Pass {
		t.Error("expected case to fail: refused when it shouldn't have")
	}
}

func TestRunDataset_AggregatesReport(t *testing.T) {
	bundle := &model.RetrievalBundle{Chunks: []model.ScoredChunk{strongChunk("doc-1", 1, 0.8)}}
	orch := &fakeOrchestrator{bundle: bundle}
	gate := evidence.NewGate(0.50)
	gen := &fakeGenerator{answer: &Answer{Text: "Sculptra 2ml."}}

	runner := NewRunner(orch, gate, gen, 0.5, 0.3, 0.70)

	ds := model.Dataset{
		Version: "v1",
		Cases: []model.QueryCase{
			{ID: "c1", Question: "sculptra dosage", ExpectedDocIDs: []string{"doc-1"}, ExpectedKeywords: []string{"sculptra"}},
			{ID: "c2", Question: "sculptra dosage", ExpectedDocIDs: []string{"doc-1"}, ExpectedKeywords: []string{"sculptra"}},
		},
	}

	report, err := runner.RunDataset(context.Background(), ds)
	if err != nil {
		t.Fatalf("RunDataset() error: %v", err)
	}
	if report.TotalCases != 2 {
		t.Errorf("TotalCases = %d, want 2", report.TotalCases)
	}
	if report.DatasetVersion != "v1" {
		t.Errorf("DatasetVersion = %q, want v1", report.DatasetVersion)
	}
	if len(report.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(report.Results))
	}
}
