package retrieval

import (
	"math"
	"sort"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// noSemanticRank is the tie-break rank assigned to a candidate that only
// the lexical branch surfaced, so it always sorts after any candidate the
// semantic branch ranked.
const noSemanticRank = math.MaxInt32

type fusionEntry struct {
	chunk        model.Chunk
	vectorScore  float64
	lexicalScore float64
	inSemantic   bool
	inLexical    bool
	semanticRank int
}

// fuse merges the semantic and lexical branch results by chunk_id,
// min-max normalizing each branch's raw scores within its own returned
// set before combining them with the policy's vector/lexical weights.
// Spec.md §4.9 step 4: a chunk missing from one branch scores 0 on that
// side rather than being excluded from the weighted sum.
func fuse(semantic, lexical []model.ScoredChunk, vectorWeight, lexicalWeight float64) []model.ScoredChunk {
	normVec := minMaxNormalize(scoresOf(semantic))
	normLex := minMaxNormalize(scoresOf(lexical))

	entries := make(map[string]*fusionEntry)
	order := make([]string, 0, len(semantic)+len(lexical))

	for i, c := range semantic {
		e := &fusionEntry{chunk: c.Chunk, vectorScore: normVec[i], inSemantic: true, semanticRank: i}
		entries[c.ChunkID] = e
		order = append(order, c.ChunkID)
	}
	for i, c := range lexical {
		if e, ok := entries[c.ChunkID]; ok {
			e.lexicalScore = normLex[i]
			e.inLexical = true
			continue
		}
		e := &fusionEntry{chunk: c.Chunk, lexicalScore: normLex[i], inLexical: true, semanticRank: noSemanticRank}
		entries[c.ChunkID] = e
		order = append(order, c.ChunkID)
	}

	out := make([]model.ScoredChunk, 0, len(order))
	for _, id := range order {
		e := entries[id]
		fusedScore := vectorWeight*e.vectorScore + lexicalWeight*e.lexicalScore

		origin := model.OriginSemantic
		switch {
		case e.inSemantic && e.inLexical:
			origin = model.OriginBoth
		case e.inLexical:
			origin = model.OriginLexical
		}

		out = append(out, model.ScoredChunk{
			Chunk:         e.chunk,
			Origin:        origin,
			VectorScore:   e.vectorScore,
			LexicalScore:  e.lexicalScore,
			FusedScore:    fusedScore,
			OriginalScore: fusedScore,
			Score:         fusedScore,
		})
	}

	sortFused(out, entries)
	return out
}

// sortFused orders by fused score descending, ties broken by the
// semantic branch's original rank (spec.md §4.9 step 4).
func sortFused(chunks []model.ScoredChunk, entries map[string]*fusionEntry) {
	rankOf := func(chunkID string) int {
		if e, ok := entries[chunkID]; ok {
			return e.semanticRank
		}
		return noSemanticRank
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		return rankOf(chunks[i].ChunkID) < rankOf(chunks[j].ChunkID)
	})
}

func scoresOf(chunks []model.ScoredChunk) []float64 {
	scores := make([]float64, len(chunks))
	for i, c := range chunks {
		scores[i] = c.Score
	}
	return scores
}

// minMaxNormalize scales values to [0,1] within the set; a constant or
// empty set normalizes to all zeros (no signal to distinguish by).
func minMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}
