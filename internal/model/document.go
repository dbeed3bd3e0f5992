package model

import "time"

// DocType is the controlled vocabulary for document categories, inferred
// from the containing directory at ingest time with a content-pattern
// fallback.
type DocType string

const (
	DocTypeFactsheet     DocType = "factsheet"
	DocTypeProtocol      DocType = "protocol"
	DocTypeClinicalPaper DocType = "clinical_paper"
	DocTypeCaseStudy     DocType = "case_study"
	DocTypeBrochure      DocType = "brochure"
	DocTypeUnknown       DocType = "unknown"
)

// DirHints maps the directory-name heuristic used by the pipeline's
// doc_type inference to a DocType. Unrecognized directories fall back to
// content-pattern detection.
var DirHints = map[string]DocType{
	"product":       DocTypeFactsheet,
	"factsheet":     DocTypeFactsheet,
	"protocol":      DocTypeProtocol,
	"clinical_paper": DocTypeClinicalPaper,
	"case_study":    DocTypeCaseStudy,
	"brochure":      DocTypeBrochure,
}

// Document is an ingested source PDF. It is identified by a stable DocID
// derived from its filename/path and is immutable once ingested under a
// given ContentHash — re-ingestion with a new hash replaces all derived
// chunks atomically (best-effort, see pipeline.Service.Ingest).
type Document struct {
	DocID       string    `json:"docId"`
	DocType     DocType   `json:"docType"`
	SourcePath  string    `json:"sourcePath"`
	ContentHash string    `json:"contentHash"`
	PageCount   int       `json:"pageCount"`
	ChunkCount  int       `json:"chunkCount"`
	IndexStatus IndexStatus `json:"indexStatus"`
	IngestedAt  time.Time `json:"ingestedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type IndexStatus string

const (
	IndexPending    IndexStatus = "pending"
	IndexProcessing IndexStatus = "processing"
	IndexIndexed    IndexStatus = "indexed"
	IndexFailed     IndexStatus = "failed"
	IndexSkipped    IndexStatus = "skipped" // unchanged content hash, force=false
)
