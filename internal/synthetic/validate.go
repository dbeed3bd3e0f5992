package synthetic

import "strings"

// minQuestionTokens/maxQuestionTokens and minSpecificityWordLen implement
// spec.md §4.13's validation rules 1-3; similarityRejectThreshold implements
// rule 4.
const (
	minQuestionTokens      = 5
	maxQuestionTokens      = 50
	minSpecificityWordLen  = 4
	similarityRejectThreshold = 0.8
)

var validationStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"with": true, "from": true, "by": true, "about": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "how": true,
	"does": true, "do": true, "can": true, "should": true, "would": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
}

// validate applies spec.md §4.13's four acceptance rules to question and
// returns the reason it was rejected, or "" if it's accepted. accepted is
// every question already accepted in this run, for the similarity check.
func validate(question, chunkText string, accepted []string) string {
	if question == "" || !strings.HasSuffix(question, "?") {
		return "does not end with a question mark"
	}

	tokens := strings.Fields(question)
	if len(tokens) < minQuestionTokens || len(tokens) > maxQuestionTokens {
		return "token count out of range"
	}

	if !hasSpecificityOverlap(question, chunkText) {
		return "no specific non-stopword shared with the source passage"
	}

	for _, prior := range accepted {
		if sequenceSimilarity(question, prior) >= similarityRejectThreshold {
			return "too similar to a previously accepted question"
		}
	}

	return ""
}

// hasSpecificityOverlap reports whether question shares at least one
// non-stopword of length >= minSpecificityWordLen with chunkText,
// case-insensitive.
func hasSpecificityOverlap(question, chunkText string) bool {
	chunkWords := wordSet(chunkText)
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = trimPunct(w)
		if len(w) < minSpecificityWordLen || validationStopWords[w] {
			continue
		}
		if chunkWords[w] {
			return true
		}
	}
	return false
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[trimPunct(w)] = true
	}
	return set
}

func trimPunct(w string) string {
	return strings.TrimFunc(w, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// sequenceSimilarity is a token-level Jaccard index between a and b,
// case-insensitive: |intersection| / |union|. Standing in for the spec's
// "sequence similarity" measure — no corpus example implements a reference
// string-similarity algorithm (e.g. difflib's ratio), so this near-
// duplicate detector is hand-written rather than borrowed.
func sequenceSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	union := map[string]bool{}
	for w := range setA {
		union[w] = true
		if setB[w] {
			intersection++
		}
	}
	for w := range setB {
		union[w] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}
