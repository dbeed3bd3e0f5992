package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/clinicalcore/retrieval-core/internal/chunker"
	"github.com/clinicalcore/retrieval-core/internal/model"
	"github.com/clinicalcore/retrieval-core/internal/textproc"
)

// maxConcurrentIngests bounds the worker pool a directory ingest fans out
// onto, the same errgroup-with-bounded-concurrency shape as the
// retrieval orchestrator's vector+lexical fan-out, generalized here from
// a fixed two-branch fan-out to an N-way one via errgroup.SetLimit.
const maxConcurrentIngests = 4

// supportedExtensions lists the source file types ingest accepts when
// walking a directory. Binary formats (.pdf, .docx) still list here since
// a Document AI-backed Parser handles them; LocalFileParser's caveat
// about lossy text only applies when no such Parser is wired.
var supportedExtensions = map[string]bool{
	".txt": true, ".md": true, ".pdf": true, ".docx": true,
}

// resolveSources expands pathOrDir into the list of document paths to
// ingest: itself, if it names a file, or every supported file directly
// under it (non-recursive — each doc_type subdirectory is ingested with
// its own call) if it names a directory.
func resolveSources(pathOrDir string) ([]string, error) {
	info, err := os.Stat(pathOrDir)
	if err != nil {
		return nil, fmt.Errorf("resolveSources: %w", err)
	}
	if !info.IsDir() {
		return []string{pathOrDir}, nil
	}

	entries, err := os.ReadDir(pathOrDir)
	if err != nil {
		return nil, fmt.Errorf("resolveSources: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		out = append(out, filepath.Join(pathOrDir, e.Name()))
	}
	return out, nil
}

// embedBatchSize bounds a single embed+upsert sub-batch, matching the
// vector store's own upsert sub-batch size.
const embedBatchSize = 100

// Embedder abstracts the embedding gateway's batch path so the pipeline
// doesn't need to know about segmentation, caching, or the provider.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore abstracts the vector store adapter operations the pipeline
// drives: upsert the new chunk set, then delete whatever the document
// previously had so a re-ingest never leaves stale chunks behind.
type VectorStore interface {
	UpsertDocument(ctx context.Context, doc model.Document) error
	SetDocumentStatus(ctx context.Context, docID string, status model.IndexStatus, chunkCount int) error
	UpsertBatch(ctx context.Context, chunks []model.ChunkWithVector) error
	DeleteStale(ctx context.Context, docID string, keepIDs []string) error
}

// LexicalRebuilder abstracts the lexical index's full rebuild step,
// invoked once per batch rather than once per document since Bleve's
// build-then-swap is itself a full-corpus operation (see
// internal/lexical.BM25Index.Rebuild).
type LexicalRebuilder interface {
	Rebuild(ctx context.Context, chunks []model.Chunk) error
}

// Service orchestrates ingestion: parse → infer doc_type → chunk → enrich
// → embed → upsert, staged exactly as the teacher's
// PipelineService.ProcessDocument, generalized to the chunker registry
// and metadata enricher and to content-hash skip/force semantics instead
// of a single fixed document type. The teacher's PII/PHI scan step is
// dropped — this corpus is pre-cleared clinical literature, not
// user-submitted content (see DESIGN.md).
type Service struct {
	parser    Parser
	chunkers  *chunker.Registry
	embedder  Embedder
	store     VectorStore
	lexical   LexicalRebuilder
	docIndex  *DocIndex
}

func NewService(parser Parser, chunkers *chunker.Registry, embedder Embedder, store VectorStore, lexical LexicalRebuilder, docIndex *DocIndex) *Service {
	return &Service{
		parser:   parser,
		chunkers: chunkers,
		embedder: embedder,
		store:    store,
		lexical:  lexical,
		docIndex: docIndex,
	}
}

// Ingest parses pathOrDir: a single-document ingest if it names a file, or
// a batch ingest of every entry in the directory otherwise. force
// re-processes documents whose content hash is unchanged from the
// companion index's last recorded value. The lexical index is rebuilt
// once at the end of the run from the full doc-index, not per document.
func (s *Service) Ingest(ctx context.Context, pathOrDir string, force bool) (*model.RunReport, error) {
	paths, err := resolveSources(pathOrDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Ingest: %w", err)
	}

	report := newReportBuilder()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentIngests)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			if err := s.ingestOne(gCtx, p, force, report); err != nil {
				slog.Error("pipeline ingest failed", "source", p, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait() // ingestOne never returns an error here; failures are recorded per-document instead

	if s.lexical != nil {
		chunks, err := s.docIndex.AllChunks()
		if err != nil {
			return nil, fmt.Errorf("pipeline.Ingest: rebuild lexical index: %w", err)
		}
		if err := s.lexical.Rebuild(ctx, chunks); err != nil {
			return nil, fmt.Errorf("pipeline.Ingest: rebuild lexical index: %w", err)
		}
	}

	return report.build(), nil
}

func (s *Service) ingestOne(ctx context.Context, sourcePath string, force bool, report *reportBuilder) error {
	docID := docIDFromPath(sourcePath)
	slog.Info("pipeline starting", "doc_id", docID, "source", sourcePath)

	parsed, err := s.parser.Extract(ctx, sourcePath)
	if err != nil {
		report.recordFailure(sourcePath, "parse_failed", err)
		return fmt.Errorf("pipeline.ingestOne: parse: %w", err)
	}

	normalized := textproc.Normalize(parsed.Text)
	contentHash := textproc.ContentHash(normalized)

	existing, err := s.docIndex.Load(docID)
	if err != nil {
		report.recordFailure(sourcePath, "doc_index_load_failed", err)
		return fmt.Errorf("pipeline.ingestOne: %w", err)
	}
	if existing != nil && existing.ContentHash == contentHash && !force {
		slog.Info("pipeline skipping unchanged document", "doc_id", docID)
		report.recordSkipped()
		return nil
	}

	docType := inferDocType(sourcePath, normalized)
	meta := chunker.DocMeta{DocID: docID, DocType: docType, PageBreaks: nil}

	// The chosen strategy tags anatomy/product/treatment and extracts
	// protocol info itself (internal/enrich, internal/textproc), once per
	// document and copied onto every derived chunk — see chunker.baseMetadata.
	strategy := s.chunkers.Resolve(docType)
	chunks, err := strategy.Chunk(normalized, meta)
	if err != nil {
		report.recordFailure(sourcePath, "chunk_failed", err)
		return fmt.Errorf("pipeline.ingestOne: chunk: %w", err)
	}
	slog.Info("pipeline chunked", "doc_id", docID, "chunk_count", len(chunks))

	// The documents row must exist before any chunk referencing it is
	// upserted (chunks.doc_id is a foreign key into documents.doc_id).
	doc := model.Document{
		DocID:       docID,
		DocType:     docType,
		SourcePath:  sourcePath,
		ContentHash: contentHash,
		PageCount:   parsed.Pages,
		ChunkCount:  len(chunks),
		IndexStatus: model.IndexProcessing,
	}
	if err := s.store.UpsertDocument(ctx, doc); err != nil {
		report.recordFailure(sourcePath, "document_upsert_failed", err)
		return fmt.Errorf("pipeline.ingestOne: %w", err)
	}

	if err := s.embedAndUpsert(ctx, chunks); err != nil {
		report.recordFailure(sourcePath, "embed_failed", err)
		_ = s.store.SetDocumentStatus(ctx, docID, model.IndexFailed, 0)
		return fmt.Errorf("pipeline.ingestOne: %w", err)
	}

	// Upsert-then-delete-prior: the new chunk set is durable (by
	// chunk_id, upserted above) before whatever the prior version left
	// behind is removed, so a crash between the two steps leaves the
	// previous version's chunks retrievable rather than half-deleted.
	if existing != nil {
		keepIDs := make([]string, len(chunks))
		for i, c := range chunks {
			keepIDs[i] = c.ChunkID
		}
		if err := s.store.DeleteStale(ctx, docID, keepIDs); err != nil {
			report.recordFailure(sourcePath, "delete_stale_failed", err)
			return fmt.Errorf("pipeline.ingestOne: %w", err)
		}
	}

	if err := s.store.SetDocumentStatus(ctx, docID, model.IndexIndexed, len(chunks)); err != nil {
		report.recordFailure(sourcePath, "document_status_failed", err)
		return fmt.Errorf("pipeline.ingestOne: %w", err)
	}

	rec := &model.DocIndexRecord{
		DocID:       docID,
		ContentHash: contentHash,
		DocType:     docType,
		SourcePath:  sourcePath,
		Chunks:      chunks,
	}
	if err := s.docIndex.Save(rec); err != nil {
		report.recordFailure(sourcePath, "doc_index_save_failed", err)
		return fmt.Errorf("pipeline.ingestOne: %w", err)
	}

	slog.Info("pipeline completed", "doc_id", docID, "chunk_count", len(chunks))
	report.recordProcessed(len(chunks))
	return nil
}

func (s *Service) embedAndUpsert(ctx context.Context, chunks []model.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		sub := chunks[start:end]

		texts := make([]string, len(sub))
		for i, c := range sub {
			texts[i] = c.Text
		}
		vecs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}

		withVec := make([]model.ChunkWithVector, len(sub))
		for i, c := range sub {
			withVec[i] = model.ChunkWithVector{Chunk: c, Embedding: vecs[i]}
		}
		if err := s.store.UpsertBatch(ctx, withVec); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// docIDFromPath derives a stable doc_id from a source path's base name,
// stripped of its extension.
func docIDFromPath(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// inferDocType applies the directory-name heuristic first (the
// containing directory names the type, e.g. ".../protocol/foo.pdf"), then
// falls back to a content-pattern scan.
func inferDocType(sourcePath, text string) model.DocType {
	dir := filepath.Base(filepath.Dir(sourcePath))
	if dt, ok := model.DirHints[strings.ToLower(dir)]; ok {
		return dt
	}
	return contentPatternDocType(text)
}

// contentPatternDocType is the fallback used when the directory name
// carries no hint: a handful of header/keyword patterns distinguishing
// the five known document shapes. Defaults to unknown, which the chunker
// registry resolves to SectionBasedChunker.
func contentPatternDocType(text string) model.DocType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "case report") || strings.Contains(lower, "case study"):
		return model.DocTypeCaseStudy
	case strings.Contains(lower, "abstract") && strings.Contains(lower, "methods"):
		return model.DocTypeClinicalPaper
	case strings.Contains(lower, "session 1") || strings.Contains(lower, "protocol:") || strings.Contains(lower, "dosage"):
		return model.DocTypeProtocol
	case strings.Contains(lower, "indications") && strings.Contains(lower, "contraindications"):
		return model.DocTypeFactsheet
	default:
		return model.DocTypeUnknown
	}
}
