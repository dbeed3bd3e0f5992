package model

import "time"

// ChunkType distinguishes the three shapes a Chunker may emit. Parents hold
// broader context; children point to a parent via ParentID; flat chunks
// have neither.
type ChunkType string

const (
	ChunkParent ChunkType = "parent"
	ChunkChild  ChunkType = "child"
	ChunkFlat   ChunkType = "flat"
)

// ChunkMetadata carries the canonical, taxonomy-controlled tags attached to
// every chunk of a document by the enricher (see enrich.Tag), plus the
// verbatim protocol-info fields extracted once per document and copied to
// every derived chunk per invariant I5.
//
// Anatomy and Product are canonical lower-case labels drawn from a
// controlled vocabulary, or empty when no label reached a nonzero tally
// (invariant I4 — free-form values are never written here).
type ChunkMetadata struct {
	Anatomy   string `json:"anatomy,omitempty"`
	Product   string `json:"product,omitempty"`
	Treatment string `json:"treatment,omitempty"`
	DocType   string `json:"docType,omitempty"` // mirror of Document.DocType

	HasProtocolInfo   bool   `json:"hasProtocolInfo"`
	ProtocolSessions  string `json:"protocolSessions,omitempty"`
	ProtocolFrequency string `json:"protocolFrequency,omitempty"`
	ProtocolDosage    string `json:"protocolDosage,omitempty"`
	ProtocolDuration  string `json:"protocolDuration,omitempty"`
}

// Chunk is the atomic unit of retrieval. It is created once by the
// ingestion pipeline and is immutable thereafter; a re-ingest of its
// parent document deletes the old chunk set and creates a new one.
type Chunk struct {
	ChunkID string  `json:"chunkId"`
	DocID   string  `json:"docId"`
	DocType DocType `json:"docType"`

	Text string `json:"text"`

	// CharStart/CharEnd are offsets into the document's normalized text.
	// Must be monotonic and contiguous when concatenated in CharStart
	// order, up to overlap regions (see textproc.BuildSegments).
	CharStart int `json:"charStart"`
	CharEnd   int `json:"charEnd"`

	PageNumber int    `json:"pageNumber"`
	Section    string `json:"section,omitempty"`

	ChunkType ChunkType `json:"chunkType"`
	ParentID  string    `json:"parentId,omitempty"`
	ChildIDs  []string  `json:"childIds,omitempty"`

	Metadata ChunkMetadata `json:"metadata"`

	TokenCount int       `json:"tokenCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChunkWithVector pairs a Chunk with its embedding, the unit the embedding
// gateway and vector store exchange.
type ChunkWithVector struct {
	Chunk
	Embedding []float32 `json:"-"`
}

// ScoredChunk is a Chunk annotated with retrieval-time signals. It is the
// element type the hybrid fusion, hierarchy expansion, and reranker stages
// of the retrieval orchestrator progressively enrich.
type ScoredChunk struct {
	Chunk

	// Origin records which branch(es) surfaced this candidate.
	Origin CandidateOrigin `json:"origin"`

	VectorScore float64 `json:"vectorScore"`
	LexicalScore float64 `json:"lexicalScore"`

	FusedScore    float64 `json:"fusedScore"`
	BoostedScore  float64 `json:"boostedScore"`
	OriginalScore float64 `json:"originalScore"` // fused score, preserved once rerank overwrites Score
	RerankScore   float64 `json:"rerankScore,omitempty"`
	Reranked      bool    `json:"reranked"`

	// Score is the effective, current-best score for this candidate at
	// whatever pipeline stage produced it last.
	Score float64 `json:"score"`

	ParentContext string   `json:"parentContext,omitempty"`
	ChildExcerpts []string `json:"childExcerpts,omitempty"`

	AppliedBoosts []string `json:"appliedBoosts,omitempty"`
}

// CandidateOrigin records which retrieval branch(es) surfaced a candidate.
type CandidateOrigin string

const (
	OriginSemantic CandidateOrigin = "semantic"
	OriginLexical  CandidateOrigin = "lexical"
	OriginBoth     CandidateOrigin = "both"
)

// DisplayScore caps a score at 1.0 for presentation while callers retain
// the unclipped value internally (reranker scores from a cross-encoder may
// exceed 1.0; see reranker.Chain).
func DisplayScore(raw float64) float64 {
	if raw > 1.0 {
		return 1.0
	}
	return raw
}
