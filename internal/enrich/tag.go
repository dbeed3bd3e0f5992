// Package enrich implements the metadata enricher (C6): frequency-based,
// deterministic taxonomy tagging. Naive "first-match wins" tagging is
// explicitly forbidden by the source requirements — it produced a
// documented misclassification (a hand-rejuvenation document mentioning
// "face" three times tagged as "face"). Every label in a family is tallied
// across the whole document and the highest tally wins.
package enrich

import (
	"regexp"
	"sort"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/taxonomy"
)

// synonymPatterns compiles a \b-bounded regexp for every synonym across
// every taxonomy family once at startup, so a substring like "face" never
// tallies a mention buried inside "surface" or "interface".
var synonymPatterns = buildSynonymPatterns()

func buildSynonymPatterns() map[string]*regexp.Regexp {
	families := []taxonomy.Family{taxonomy.FamilyAnatomy, taxonomy.FamilyProduct, taxonomy.FamilyTreatment}
	patterns := make(map[string]*regexp.Regexp)
	for _, family := range families {
		for _, synonyms := range taxonomy.ByFamily(family) {
			for _, syn := range synonyms {
				lower := strings.ToLower(syn)
				if _, ok := patterns[lower]; ok {
					continue
				}
				patterns[lower] = regexp.MustCompile(`\b` + regexp.QuoteMeta(lower) + `\b`)
			}
		}
	}
	return patterns
}

// TagFamily scans normalizedText for every synonym of every label in the
// family's synonym table, tallies mentions per label, and returns the
// label with the highest tally. Ties are broken by lexicographic label
// order. Zero matches across all labels returns "" (∅), never a guessed
// label — per invariant I4, taxonomy fields are canonical-or-empty.
func TagFamily(normalizedText string, family taxonomy.Family) string {
	table := taxonomy.ByFamily(family)
	if len(table) == 0 {
		return ""
	}
	lower := strings.ToLower(normalizedText)

	tally := make(map[string]int, len(table))
	for label, synonyms := range table {
		count := 0
		for _, syn := range synonyms {
			count += len(synonymPatterns[strings.ToLower(syn)].FindAllStringIndex(lower, -1))
		}
		tally[label] = count
	}

	best := ""
	bestCount := 0
	labels := make([]string, 0, len(tally))
	for label := range tally {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		count := tally[label]
		if count == 0 {
			continue
		}
		if count > bestCount {
			best = label
			bestCount = count
		}
		// Equal counts: keep the lexicographically earlier label, which is
		// already `best` because labels are iterated in sorted order and
		// we only overwrite on a strictly greater count.
	}
	return best
}

// Tags is the resolved set of taxonomy labels for a document, computed
// once and copied into every chunk of that document.
type Tags struct {
	Anatomy   string
	Product   string
	Treatment string
}

// TagDocument runs TagFamily across all three taxonomy families.
func TagDocument(normalizedText string) Tags {
	return Tags{
		Anatomy:   TagFamily(normalizedText, taxonomy.FamilyAnatomy),
		Product:   TagFamily(normalizedText, taxonomy.FamilyProduct),
		Treatment: TagFamily(normalizedText, taxonomy.FamilyTreatment),
	}
}
