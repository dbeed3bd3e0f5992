package reranker

import (
	"context"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// LexicalOverlapTier is the chain's last-resort tier: word-overlap between
// query and chunk text. It never fails, so the chain always terminates.
type LexicalOverlapTier struct{}

func NewLexicalOverlapTier() *LexicalOverlapTier {
	return &LexicalOverlapTier{}
}

func (t *LexicalOverlapTier) Name() string { return "lexical-overlap" }

func (t *LexicalOverlapTier) Score(ctx context.Context, query string, candidates []model.ScoredChunk) ([]float64, error) {
	queryWords := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = keywordOverlap(queryWords, strings.ToLower(c.Text))
	}
	return scores, nil
}

// keywordOverlap computes the fraction of query words found in text.
func keywordOverlap(queryWords []string, text string) float64 {
	if len(queryWords) == 0 {
		return 0.5
	}
	found := 0
	for _, w := range queryWords {
		w = stripPunctuation(w)
		if len(w) > 2 && strings.Contains(text, w) {
			found++
		}
	}
	return float64(found) / float64(len(queryWords))
}

func stripPunctuation(w string) string {
	return strings.TrimFunc(w, func(r rune) bool {
		return r == '.' || r == ',' || r == '!' || r == '?' || r == ';' || r == ':' || r == '"' || r == '\'' || r == '(' || r == ')' || r == '[' || r == ']'
	})
}
