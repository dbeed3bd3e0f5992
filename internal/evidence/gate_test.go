package evidence

import (
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func chunkWithScore(score float64) model.ScoredChunk {
	return model.ScoredChunk{Score: score}
}

func TestGate_Evaluate_EmptyBundle(t *testing.T) {
	g := NewGate(0.50)
	a := g.Evaluate(nil, model.QueryGenericFactual)
	if a.Sufficient {
		t.Error("expected Sufficient false for an empty bundle")
	}
	if a.StrongMatches != 0 || a.Confidence != 0 {
		t.Errorf("got StrongMatches=%d Confidence=%v, want 0/0", a.StrongMatches, a.Confidence)
	}
}

func TestGate_Evaluate_OneStrongMatchIsSufficient(t *testing.T) {
	g := NewGate(0.50)
	a := g.Evaluate([]model.ScoredChunk{chunkWithScore(0.62), chunkWithScore(0.2)}, model.QuerySafety)
	if !a.Sufficient {
		t.Error("expected Sufficient true with one chunk above threshold")
	}
	if a.StrongMatches != 1 {
		t.Errorf("StrongMatches = %d, want 1", a.StrongMatches)
	}
}

func TestGate_Evaluate_AllBelowThresholdIsInsufficient(t *testing.T) {
	g := NewGate(0.50)
	a := g.Evaluate([]model.ScoredChunk{chunkWithScore(0.3), chunkWithScore(0.1)}, model.QueryGenericFactual)
	if a.Sufficient {
		t.Error("expected Sufficient false when no chunk meets the threshold")
	}
}

func TestGate_Evaluate_HighConfidenceCrossEncoderOverride(t *testing.T) {
	g := NewGate(2.0) // deliberately above the rerank score, so the lone chunk wouldn't count as a strong match
	chunk := model.ScoredChunk{Score: 1.4, Reranked: true}
	a := g.Evaluate([]model.ScoredChunk{chunk}, model.QueryProtocol)
	if !a.Sufficient {
		t.Error("expected a high cross-encoder rerank score to override an otherwise-insufficient match count")
	}
	if a.Confidence <= 0.85 || a.Confidence > 0.95 {
		t.Errorf("Confidence = %v, want in (0.85, 0.95]", a.Confidence)
	}
}

func TestGate_Evaluate_UnrerankedScoreAboveOneIsNotReadAsCrossEncoder(t *testing.T) {
	g := NewGate(2.0) // deliberately above the fused score, so it wouldn't count as a strong match
	// A non-reranked, hierarchy-boosted fused score can exceed 1.0 (see
	// retrieval.hierarchy's 1.10 parent/child multiplier); confidence()
	// must not run it through the cross-encoder 0.85-0.95 mapping, which
	// assumes a logit-scale rerank score. Plain clamping instead yields a
	// clearly distinguishable 1.0.
	chunk := model.ScoredChunk{Score: 1.02, Reranked: false}
	a := g.Evaluate([]model.ScoredChunk{chunk}, model.QueryProtocol)
	if a.Sufficient {
		t.Error("expected Sufficient false for an unreranked score with no strong match")
	}
	if a.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0 (plain clamp, not the cross-encoder band)", a.Confidence)
	}
}

func TestBuildRefusal(t *testing.T) {
	r := BuildRefusal(0.2)
	if r.Protocol != "EVIDENCE_GATE_REFUSAL" {
		t.Errorf("Protocol = %q", r.Protocol)
	}
	if len(r.Suggestions) == 0 {
		t.Error("expected non-empty suggestions")
	}
}
