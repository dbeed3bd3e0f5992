package model

// EvidenceAssessment is the output of the evidence evaluator (C10): whether
// the retrieval bundle carries enough signal to answer, and how confident
// that answer should be.
type EvidenceAssessment struct {
	Sufficient    bool      `json:"sufficient"`
	StrongMatches int       `json:"strongMatches"`
	Confidence    float64   `json:"confidence"`
	QueryType     QueryType `json:"queryType"`
}

// RetrievalDetails records, per candidate, the provenance the orchestrator
// accumulated while building the final bundle — used for debugging,
// evaluation, and display.
type RetrievalDetails struct {
	QueryType          QueryType      `json:"queryType"`
	Expansions         []string       `json:"expansions,omitempty"`
	CandidateCount     int            `json:"candidateCount"`
	RerankerUnavailable bool          `json:"rerankerUnavailable,omitempty"`
	LowConfidence      bool           `json:"lowConfidence,omitempty"`
	PerCandidate        []CandidateDetail `json:"perCandidate,omitempty"`
}

// CandidateDetail is one row of RetrievalDetails.PerCandidate.
type CandidateDetail struct {
	ChunkID       string          `json:"chunkId"`
	Origin        CandidateOrigin `json:"origin"`
	FusedScore    float64         `json:"fusedScore"`
	RerankScore   float64         `json:"rerankScore,omitempty"`
	AppliedBoosts []string        `json:"appliedBoosts,omitempty"`
}

// RetrievalBundle is the full output of retrieval.Orchestrator.Retrieve: an
// ordered list of scored chunks plus evidence assessment and details, the
// shape the query-endpoint contract (SPEC_FULL §6) describes.
type RetrievalBundle struct {
	Chunks    []ScoredChunk       `json:"retrieved"`
	Evidence  EvidenceAssessment  `json:"evidence"`
	Details   RetrievalDetails    `json:"retrieval_details"`
}

// DocIndexRecord is the on-disk companion index persisted once per doc_id
// after ingestion, allowing re-enrichment without re-extracting the source
// PDF (see pipeline.DocIndex).
type DocIndexRecord struct {
	DocID       string  `json:"docId"`
	ContentHash string  `json:"contentHash"`
	DocType     DocType `json:"docType"`
	SourcePath  string  `json:"sourcePath"`
	Chunks      []Chunk `json:"chunks"`
}

// RunReport is the per-batch result of pipeline.Service.Ingest.
type RunReport struct {
	StartedAt  string            `json:"startedAt"`
	FinishedAt string            `json:"finishedAt"`
	Processed  int               `json:"processed"`
	Skipped    int                `json:"skipped"`
	ChunksTotal int              `json:"chunksTotal"`
	Failures   []IngestFailure   `json:"failures,omitempty"`
}

// IngestFailure records one document that failed during a batch ingest run
// without aborting the rest of the batch.
type IngestFailure struct {
	SourcePath string `json:"sourcePath"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}
