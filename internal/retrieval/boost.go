package retrieval

import "github.com/clinicalcore/retrieval-core/internal/model"

// applyBoosts adds every matching policy boost's Additive value to each
// candidate's score, tracking which boosts fired. Scores are left
// unclipped internally; callers clip with model.DisplayScore only when
// presenting a value externally (spec.md §4.9 step 6).
func applyBoosts(candidates []model.ScoredChunk, boosts []model.Boost, lowerQuery string) {
	for i := range candidates {
		c := &candidates[i]
		for _, b := range boosts {
			if b.Predicate == nil || !b.Predicate(c, lowerQuery) {
				continue
			}
			c.Score += b.Additive
			c.BoostedScore = c.Score
			c.AppliedBoosts = append(c.AppliedBoosts, b.Name)
		}
	}
}
