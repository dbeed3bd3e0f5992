package queryrouter

import (
	"regexp"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

const (
	defaultMultiplier    = 3
	comparisonMultiplier = 5

	defaultVectorWeight  = 0.7
	defaultLexicalWeight = 0.3
	safetyVectorWeight   = 0.6
	safetyLexicalWeight  = 0.4
)

// knownProducts is the controlled vocabulary PolicyFor's product-name
// extraction scans a question against, mirroring the chunker enricher's
// own small controlled vocabularies (internal/enrich.TagDocument) rather
// than attempting open-ended entity extraction.
var knownProducts = []string{
	"sculptra", "radiesse", "restylane", "juvederm", "botox", "dysport", "xeomin",
}

var wordBoundary = regexp.MustCompile(`[^a-z0-9]+`)

// extractProducts returns every knownProducts entry the lowercased question
// mentions, in knownProducts order.
func extractProducts(lowerQuestion string) []string {
	var found []string
	for _, p := range knownProducts {
		if strings.Contains(lowerQuestion, p) {
			found = append(found, p)
		}
	}
	return found
}

// PolicyFor builds the model.RetrievalPolicy the retrieval orchestrator
// applies for a classified question. Weight and multiplier defaults come
// from spec.md's retrieval policy table; COMPARISON additionally boosts
// every factsheet/brochure chunk and, separately, every chunk whose doc_id
// mentions a product named in the question, and adds those product names
// as query expansions, so "compare Sculptra and Radiesse" favours chunks
// from either product's own documents.
func PolicyFor(queryType QueryType, question string) model.RetrievalPolicy {
	lower := strings.ToLower(question)

	policy := model.RetrievalPolicy{
		QueryType:           queryType,
		RetrievalMultiplier: defaultMultiplier,
		VectorWeight:        defaultVectorWeight,
		LexicalWeight:       defaultLexicalWeight,
	}

	switch queryType {
	case Safety:
		policy.VectorWeight = safetyVectorWeight
		policy.LexicalWeight = safetyLexicalWeight
	case ProductInfo:
		// Product-identity answers live in the product's own factsheet or
		// brochure, not in clinical papers or case studies discussing it.
		policy.Boosts = append(policy.Boosts, model.Boost{
			Name:     "product_info_doc_type",
			Additive: 0.25,
			Predicate: func(c *model.ScoredChunk, _ string) bool {
				return c.DocType == model.DocTypeFactsheet || c.DocType == model.DocTypeBrochure
			},
		})
	case Comparison:
		policy.RetrievalMultiplier = comparisonMultiplier
		products := extractProducts(lower)
		policy.Boosts = append(policy.Boosts,
			model.Boost{
				Name:     "comparison_doc_type",
				Additive: 0.25,
				Predicate: func(c *model.ScoredChunk, _ string) bool {
					return c.DocType == model.DocTypeFactsheet || c.DocType == model.DocTypeBrochure
				},
			},
		)
		if len(products) > 0 {
			policy.Boosts = append(policy.Boosts, model.Boost{
				Name:     "comparison_product_match",
				Additive: 0.15,
				Predicate: func(c *model.ScoredChunk, _ string) bool {
					docID := strings.ToLower(c.DocID)
					for _, p := range products {
						if strings.Contains(docID, p) {
							return true
						}
					}
					return false
				},
			})
			policy.QueryExpansions = append(policy.QueryExpansions, products...)
		}
		policy.QueryExpansions = append(policy.QueryExpansions, "factsheet comparison")
	}

	return policy
}
