package evalharness

import (
	"regexp"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// salientTokenPattern matches capitalized product-style words ("Sculptra")
// and numeric+unit tokens ("2ml", "20mg") — the two salient-token classes
// spec.md §4.12's Groundedness dimension names.
var salientTokenPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z]{2,}|\d+(\.\d+)?(ml|mg|cc|mm|cm|hr|hrs|min|mins|days?|weeks?|months?))\b`)

// citationMarkerPattern detects inline citation markers like "[1]" or "(p.3)".
var citationMarkerPattern = regexp.MustCompile(`\[\d+\]|\(p\.?\s*\d+\)`)

var evalStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "and": true,
	"or": true, "but": true, "for": true, "of": true, "to": true, "in": true,
	"on": true, "at": true, "by": true, "with": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "how": true,
	"does": true, "do": true, "did": true, "can": true, "could": true,
	"should": true, "would": true, "will": true, "this": true, "that": true,
	"it": true, "its": true, "as": true,
}

// computeTriad computes the three heuristic quality dimensions of
// spec.md §4.12. keywordCoverage is passed in rather than recomputed, since
// the Answer Relevance formula reuses it directly. shouldRefuse is the
// case's expectation, needed to tell an appropriate refusal from an
// inappropriate one.
func computeTriad(question string, answer Answer, chunks []model.ScoredChunk, keywordCoverage float64, shouldRefuse bool) model.TriadScores {
	return model.TriadScores{
		ContextRelevance: contextRelevance(chunks),
		Groundedness:     groundedness(answer, chunks),
		AnswerRelevance:  answerRelevance(question, answer, keywordCoverage, shouldRefuse),
	}
}

// contextRelevance is the mean effective score of the retrieved chunks.
func contextRelevance(chunks []model.ScoredChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	var sum float64
	for _, c := range chunks {
		sum += model.DisplayScore(c.Score)
	}
	return sum / float64(len(chunks))
}

// groundedness extracts salient tokens from the answer and measures what
// fraction of them appear in the concatenated retrieved context, with a
// bonus for citation markers. A proper refusal (answer.Refused true) scores
// 1.0 — there is nothing ungrounded to check. An answer with no salient
// tokens to check scores a neutral 0.5.
func groundedness(answer Answer, chunks []model.ScoredChunk) float64 {
	if answer.Refused {
		return 1.0
	}

	tokens := salientTokenPattern.FindAllString(answer.Text, -1)
	if len(tokens) == 0 {
		return 0.5
	}

	var context strings.Builder
	for _, c := range chunks {
		context.WriteString(strings.ToLower(c.Text))
		context.WriteByte(' ')
	}
	contextLower := context.String()

	found := 0
	for _, tok := range tokens {
		if strings.Contains(contextLower, strings.ToLower(tok)) {
			found++
		}
	}

	score := float64(found) / float64(len(tokens))
	if citationMarkerPattern.MatchString(answer.Text) {
		score += 0.15
	}

	return clamp01(score)
}

// answerRelevance combines keyword coverage with how many non-stopword
// query terms the answer repeats back. An appropriate refusal (the gate
// was right to refuse) scores 1.0; an inappropriate one scores 0.2.
func answerRelevance(question string, answer Answer, keywordCoverage float64, shouldRefuse bool) float64 {
	if answer.Refused {
		if shouldRefuse {
			return 1.0
		}
		return 0.2
	}

	queryTermCoverage := nonStopwordCoverage(question, answer.Text)
	return clamp01(0.6*keywordCoverage + 0.4*queryTermCoverage)
}

func nonStopwordCoverage(question, answer string) float64 {
	words := strings.Fields(strings.ToLower(question))
	answerLower := strings.ToLower(answer)

	checked, found := 0, 0
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		})
		if w == "" || evalStopWords[w] {
			continue
		}
		checked++
		if strings.Contains(answerLower, w) {
			found++
		}
	}

	if checked == 0 {
		return 1.0
	}
	return float64(found) / float64(checked)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
