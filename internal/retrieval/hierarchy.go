package retrieval

import (
	"context"
	"fmt"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// expandHierarchy attaches parent context to every child candidate and
// child excerpts to every parent candidate, fetching whatever chunks
// aren't already present in the candidate set itself. A parent and at
// least one of its children both surfacing as candidates receives a
// +10% multiplicative boost (spec.md §4.9 step 5).
func (o *Orchestrator) expandHierarchy(ctx context.Context, candidates []model.ScoredChunk) error {
	byID := make(map[string]*model.ScoredChunk, len(candidates))
	for i := range candidates {
		byID[candidates[i].ChunkID] = &candidates[i]
	}

	var toFetch []string
	for i := range candidates {
		c := &candidates[i]
		if c.ChunkType == model.ChunkChild && c.ParentID != "" {
			if _, ok := byID[c.ParentID]; !ok {
				toFetch = append(toFetch, c.ParentID)
			}
		}
		for _, childID := range c.ChildIDs {
			if _, ok := byID[childID]; !ok {
				toFetch = append(toFetch, childID)
			}
		}
	}

	fetched := make(map[string]model.Chunk)
	if len(toFetch) > 0 {
		chunks, err := o.vector.Fetch(ctx, toFetch)
		if err != nil {
			return fmt.Errorf("fetch parent/child context: %w", err)
		}
		for _, c := range chunks {
			fetched[c.ChunkID] = c
		}
	}

	hasMatchedRelative := make(map[string]bool, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if c.ChunkType != model.ChunkChild || c.ParentID == "" {
			continue
		}
		if parent, ok := byID[c.ParentID]; ok {
			c.ParentContext = parent.Text
			hasMatchedRelative[c.ChunkID] = true
			hasMatchedRelative[parent.ChunkID] = true
		} else if parent, ok := fetched[c.ParentID]; ok {
			c.ParentContext = parent.Text
		}
	}

	for i := range candidates {
		c := &candidates[i]
		if len(c.ChildIDs) == 0 {
			continue
		}
		for _, childID := range c.ChildIDs {
			if child, ok := byID[childID]; ok {
				c.ChildExcerpts = append(c.ChildExcerpts, child.Text)
				hasMatchedRelative[c.ChunkID] = true
				hasMatchedRelative[child.ChunkID] = true
				continue
			}
			if child, ok := fetched[childID]; ok {
				c.ChildExcerpts = append(c.ChildExcerpts, child.Text)
			}
		}
	}

	for i := range candidates {
		c := &candidates[i]
		if hasMatchedRelative[c.ChunkID] {
			c.Score *= hierarchyBoostFactor
			c.FusedScore *= hierarchyBoostFactor
			c.AppliedBoosts = append(c.AppliedBoosts, "hierarchy_match")
		}
	}

	return nil
}
