package synthetic

import "github.com/clinicalcore/retrieval-core/internal/model"

// sampleChunks picks up to n chunks from all, stratified across doc_id,
// chunk_type, and section: chunks are bucketed by that triple, then one
// chunk is drawn from each non-empty bucket in turn (round-robin) until n
// is reached or every bucket is exhausted. This spreads the sample across
// the corpus instead of letting one large document or chunk type dominate.
func sampleChunks(all []model.Chunk, n int) []model.Chunk {
	if n <= 0 || len(all) == 0 {
		return nil
	}

	type bucketKey struct {
		docID     string
		chunkType model.ChunkType
		section   string
	}

	order := []bucketKey{}
	buckets := map[bucketKey][]model.Chunk{}
	for _, c := range all {
		key := bucketKey{docID: c.DocID, chunkType: c.ChunkType, section: c.Section}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], c)
	}

	var out []model.Chunk
	for len(out) < n {
		progressed := false
		for _, key := range order {
			if len(out) >= n {
				break
			}
			bucket := buckets[key]
			if len(bucket) == 0 {
				continue
			}
			out = append(out, bucket[0])
			buckets[key] = bucket[1:]
			progressed = true
		}
		if !progressed {
			break // every bucket exhausted before reaching n
		}
	}
	return out
}
