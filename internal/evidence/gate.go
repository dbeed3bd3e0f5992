// Package evidence implements the Evidence Evaluator (C10): decides,
// from a retrieval bundle alone, whether there is enough grounded
// signal to answer at all. Grounded on the teacher's
// service/silence.go (the Silence Protocol refusal gate) and
// service/selfrag.go's confidence averaging, generalized from one fixed
// 0.60 cutoff to a configurable strong-match threshold and the
// cross-encoder confidence mapping. Sufficiency is decided by that one
// threshold (at least one strong match) or a high-confidence cross-encoder
// top score; config.Config's EvidenceSufficiencyThreshold is not read here.
package evidence

import "github.com/clinicalcore/retrieval-core/internal/model"

// highConfidenceCrossEncoderCutoff is the provider-specific "this top
// score alone is enough" cutoff spec.md §4.10 refers to: a cross-encoder
// rerank score above 1.0 (raw logit territory, not a [0,1] similarity)
// already signals a confident match even with a single strong chunk.
const highConfidenceCrossEncoderCutoff = 1.0

// Gate evaluates retrieval bundles against configurable thresholds.
type Gate struct {
	strongMatchThreshold float64
	sufficiencyMinStrong int
}

// NewGate builds a Gate. strongMatchThreshold is the minimum effective
// score (spec.md default 0.50) a chunk needs to count as a strong match.
func NewGate(strongMatchThreshold float64) *Gate {
	if strongMatchThreshold <= 0 {
		strongMatchThreshold = 0.50
	}
	return &Gate{strongMatchThreshold: strongMatchThreshold, sufficiencyMinStrong: 1}
}

// Evaluate computes the EvidenceAssessment for bundle's chunks.
func (g *Gate) Evaluate(chunks []model.ScoredChunk, queryType model.QueryType) model.EvidenceAssessment {
	if len(chunks) == 0 {
		return model.EvidenceAssessment{Sufficient: false, StrongMatches: 0, Confidence: 0, QueryType: queryType}
	}

	strong := 0
	topScore := chunks[0].Score
	for _, c := range chunks {
		if c.Score >= g.strongMatchThreshold {
			strong++
		}
		if c.Score > topScore {
			topScore = c.Score
		}
	}

	highConfidence := chunks[0].Reranked && chunks[0].Score > highConfidenceCrossEncoderCutoff
	sufficient := strong >= g.sufficiencyMinStrong || highConfidence

	return model.EvidenceAssessment{
		Sufficient:    sufficient,
		StrongMatches: strong,
		Confidence:    confidence(topScore, strong, chunks[0].Reranked),
		QueryType:     queryType,
	}
}

// confidence combines the top effective score and the strong-match count
// into a single [0,1] value. A cross-encoder rerank score above 1.0 maps
// into the high-confidence band 0.85–0.95 (spec.md §4.10); otherwise
// confidence is the top score itself, nudged up slightly per extra
// strong match and clamped to [0,1]. reranked gates the high-confidence
// band exactly like the Sufficient check above: a fused, non-reranked
// score can also exceed 1.0 (retrieval.hierarchy's parent/child boost
// multiplies fused scores by 1.10), and that is not a cross-encoder
// signal.
func confidence(topScore float64, strongMatches int, reranked bool) float64 {
	if reranked && topScore > highConfidenceCrossEncoderCutoff {
		c := 0.85 + (topScore-highConfidenceCrossEncoderCutoff)*0.1
		if c > 0.95 {
			c = 0.95
		}
		return c
	}

	c := topScore
	if strongMatches > 1 {
		c += 0.02 * float64(strongMatches-1)
	}
	if c > 1.0 {
		c = 1.0
	}
	if c < 0.0 {
		c = 0.0
	}
	return c
}
