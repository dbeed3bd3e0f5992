// Package pipeline implements the ingestion pipeline (C7): parse → chunk
// → enrich → embed → upsert, staged the way the teacher's
// PipelineService.ProcessDocument is staged, generalized to the chunker
// registry and metadata enricher and to content-hash skip/force
// semantics instead of a single fixed document type.
package pipeline

import (
	"context"
	"fmt"
	"os"
)

// ParseResult is a parsed document's text plus its page count, the shape
// every Parser implementation returns regardless of source format.
type ParseResult struct {
	Text  string
	Pages int
}

// Parser abstracts document text extraction. gcpclient's Document AI and
// plain-text adapters both implement this; tests use a fake.
type Parser interface {
	Extract(ctx context.Context, source string) (*ParseResult, error)
}

// LocalFileParser reads a document directly off the local filesystem,
// used for .txt/.md sources where no OCR step is needed. PDFs and other
// binary formats are expected to go through a gcpclient Document AI
// Parser instead — LocalFileParser treats them as opaque bytes and would
// yield lossy text, matching the teacher's own TextParser caveat.
type LocalFileParser struct{}

func NewLocalFileParser() *LocalFileParser { return &LocalFileParser{} }

func (p *LocalFileParser) Extract(ctx context.Context, source string) (*ParseResult, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("pipeline.LocalFileParser.Extract: %w", err)
	}
	return &ParseResult{Text: string(data), Pages: 1}, nil
}

var _ Parser = (*LocalFileParser)(nil)
