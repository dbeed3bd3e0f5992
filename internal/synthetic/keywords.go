package synthetic

import (
	"regexp"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/taxonomy"
)

// salientTokenPattern matches capitalized words and numeric+unit tokens, the
// same shape evalharness.salientTokenPattern uses for groundedness scoring —
// both are instances of spec.md's "salient chunk tokens" definition, applied
// to different text (here, chunk source text rather than a generated
// answer).
var salientTokenPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z]{2,}|\d+(\.\d+)?(ml|mg|cc|mm|cm|hr|hrs|min|mins|days?|weeks?|months?))\b`)

const maxExpectedKeywords = 8

// extractKeywords pulls expected keywords from chunk text: capitalized
// words, numeric+unit tokens, and any known product name from the
// controlled taxonomy, deduplicated and capped.
func extractKeywords(chunkText string) []string {
	seen := map[string]bool{}
	var out []string

	add := func(token string) {
		key := strings.ToLower(token)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, token)
	}

	for _, m := range salientTokenPattern.FindAllString(chunkText, -1) {
		if len(out) >= maxExpectedKeywords {
			break
		}
		add(m)
	}

	lower := strings.ToLower(chunkText)
	for product := range taxonomy.Product {
		if len(out) >= maxExpectedKeywords {
			break
		}
		if strings.Contains(lower, product) {
			add(product)
		}
	}

	return out
}
