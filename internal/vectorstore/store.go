package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// upsertBatchSize bounds a single pgx.Batch round trip; matches the
// ingestion pipeline's sub-batch size for embed+upsert cycles.
const upsertBatchSize = 100

// Filter narrows a vector query to a metadata slice. Empty fields are not
// applied as predicates.
type Filter struct {
	DocType   string
	Anatomy   string
	Product   string
	Treatment string
	DocIDs    []string
}

// Store implements the Vector Store Adapter contract: upsert_batch,
// query(vector, top_k, filter), fetch(chunk_ids), delete(doc_id).
type Store struct {
	pool  *pgxpool.Pool
	cache *QueryCache
}

// NewStore creates a Store. cache is optional (nil disables query caching).
func NewStore(pool *pgxpool.Pool, cache *QueryCache) *Store {
	return &Store{pool: pool, cache: cache}
}

// UpsertBatch stores chunks with their embedding vectors using pgx
// batching, upserting on chunk_id so re-ingestion of an unchanged chunk is
// idempotent. Invalidates the query cache, since newly-ingested chunks
// must be reachable immediately rather than waiting out a stale TTL entry.
func (s *Store) UpsertBatch(ctx context.Context, chunks []model.ChunkWithVector) error {
	if len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.upsertSlice(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("vectorstore.UpsertBatch: rows %d-%d: %w", start, end, err)
		}
	}
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
	return nil
}

func (s *Store) upsertSlice(ctx context.Context, chunks []model.ChunkWithVector) error {
	batch := &pgx.Batch{}
	now := time.Now().UTC()

	for _, c := range chunks {
		embedding := pgvector.NewVector(c.Embedding)
		batch.Queue(`
			INSERT INTO chunks (
				chunk_id, doc_id, doc_type, text, char_start, char_end,
				page_number, section, chunk_type, parent_id,
				anatomy, product, treatment, has_protocol_info,
				protocol_sessions, protocol_frequency, protocol_dosage, protocol_duration,
				token_count, embedding, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6,
				$7, $8, $9, $10,
				$11, $12, $13, $14,
				$15, $16, $17, $18,
				$19, $20, $21, $21
			)
			ON CONFLICT (chunk_id) DO UPDATE SET
				text = EXCLUDED.text,
				char_start = EXCLUDED.char_start,
				char_end = EXCLUDED.char_end,
				embedding = EXCLUDED.embedding,
				anatomy = EXCLUDED.anatomy,
				product = EXCLUDED.product,
				treatment = EXCLUDED.treatment,
				has_protocol_info = EXCLUDED.has_protocol_info,
				updated_at = EXCLUDED.updated_at`,
			c.ChunkID, c.DocID, string(c.DocType), c.Text, c.CharStart, c.CharEnd,
			c.PageNumber, c.Section, string(c.ChunkType), c.ParentID,
			c.Metadata.Anatomy, c.Metadata.Product, c.Metadata.Treatment, c.Metadata.HasProtocolInfo,
			c.Metadata.ProtocolSessions, c.Metadata.ProtocolFrequency, c.Metadata.ProtocolDosage, c.Metadata.ProtocolDuration,
			c.TokenCount, embedding, now,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("chunk %d (%s): %w", i, chunks[i].ChunkID, err)
		}
	}
	return nil
}

// UpsertDocument writes or refreshes a document's catalog row. Chunks
// reference documents.doc_id via a foreign key, so this must run before
// UpsertBatch stores that document's chunks.
func (s *Store) UpsertDocument(ctx context.Context, doc model.Document) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (
			doc_id, doc_type, source_path, content_hash,
			page_count, chunk_count, index_status, ingested_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (doc_id) DO UPDATE SET
			doc_type     = EXCLUDED.doc_type,
			source_path  = EXCLUDED.source_path,
			content_hash = EXCLUDED.content_hash,
			page_count   = EXCLUDED.page_count,
			chunk_count  = EXCLUDED.chunk_count,
			index_status = EXCLUDED.index_status,
			ingested_at  = EXCLUDED.ingested_at,
			updated_at   = EXCLUDED.updated_at`,
		doc.DocID, string(doc.DocType), doc.SourcePath, doc.ContentHash,
		doc.PageCount, doc.ChunkCount, string(doc.IndexStatus), now,
	)
	if err != nil {
		return fmt.Errorf("vectorstore.UpsertDocument: %w", err)
	}
	return nil
}

// SetDocumentStatus updates a document's index_status and chunk_count
// after its chunks have been upserted (or its ingest has failed).
func (s *Store) SetDocumentStatus(ctx context.Context, docID string, status model.IndexStatus, chunkCount int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE documents SET index_status = $2, chunk_count = $3, updated_at = $4
		WHERE doc_id = $1`,
		docID, string(status), chunkCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("vectorstore.SetDocumentStatus: %w", err)
	}
	return nil
}

// Query finds the top-K chunks most similar to vec under cosine distance,
// narrowed by filter. Similarity is exposed unclipped; callers use
// model.DisplayScore before presenting it.
func (s *Store) Query(ctx context.Context, vec []float32, topK int, filter Filter) ([]model.ScoredChunk, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, vec, topK, filter); ok {
			return cached, nil
		}
	}

	embedding := pgvector.NewVector(vec)

	query := `
		SELECT
			chunk_id, doc_id, doc_type, text, char_start, char_end,
			page_number, section, chunk_type, parent_id,
			anatomy, product, treatment, has_protocol_info,
			protocol_sessions, protocol_frequency, protocol_dosage, protocol_duration,
			token_count, created_at,
			1 - (embedding <=> $1::vector) AS similarity
		FROM chunks
		WHERE 1 = 1`

	args := []any{embedding}
	args = appendFilterPredicates(&query, args, filter)

	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT $%d", len(args)+1)
	args = append(args, topK)

	slog.Debug("vectorstore.Query", "top_k", topK, "filter", filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorstore.Query: %w", err)
	}
	defer rows.Close()

	var results []model.ScoredChunk
	for rows.Next() {
		sc, err := scanScoredChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("vectorstore.Query: scan: %w", err)
		}
		sc.Origin = model.OriginSemantic
		sc.VectorScore = sc.Score
		results = append(results, sc)
	}
	if s.cache != nil {
		s.cache.Set(ctx, vec, topK, filter, results)
	}
	return results, nil
}

// Fetch loads chunks by ID, e.g. to attach parent/child context during
// hierarchy expansion.
func (s *Store) Fetch(ctx context.Context, chunkIDs []string) ([]model.Chunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT
			chunk_id, doc_id, doc_type, text, char_start, char_end,
			page_number, section, chunk_type, parent_id,
			anatomy, product, treatment, has_protocol_info,
			protocol_sessions, protocol_frequency, protocol_dosage, protocol_duration,
			token_count, created_at
		FROM chunks WHERE chunk_id = ANY($1)`, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("vectorstore.Fetch: %w", err)
	}
	defer rows.Close()

	var out []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var docType, chunkType, parentID, anatomy, product, treatment string
		var sessions, frequency, dosage, duration string
		err := rows.Scan(
			&c.ChunkID, &c.DocID, &docType, &c.Text, &c.CharStart, &c.CharEnd,
			&c.PageNumber, &c.Section, &chunkType, &parentID,
			&anatomy, &product, &treatment, &c.Metadata.HasProtocolInfo,
			&sessions, &frequency, &dosage, &duration,
			&c.TokenCount, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("vectorstore.Fetch: scan: %w", err)
		}
		c.DocType = model.DocType(docType)
		c.ChunkType = model.ChunkType(chunkType)
		c.ParentID = parentID
		c.Metadata.Anatomy = anatomy
		c.Metadata.Product = product
		c.Metadata.Treatment = treatment
		c.Metadata.ProtocolSessions = sessions
		c.Metadata.ProtocolFrequency = frequency
		c.Metadata.ProtocolDosage = dosage
		c.Metadata.ProtocolDuration = duration
		out = append(out, c)
	}
	return out, nil
}

// DeleteByDocID removes every chunk belonging to a document. The ingestion
// pipeline's re-ingest cycle uses DeleteStale instead.
func (s *Store) DeleteByDocID(ctx context.Context, docID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE doc_id = $1`, docID)
	if err != nil {
		return fmt.Errorf("vectorstore.DeleteByDocID: %w", err)
	}
	return nil
}

// DeleteStale removes chunks belonging to docID whose chunk_id is not in
// keepIDs — the second half of the pipeline's upsert-then-delete-prior
// re-ingest cycle. The new chunk set is upserted first (durable), then
// this call removes whatever the prior version left behind that the new
// chunking no longer produces, so a crash between the two steps never
// loses the previous version's chunks outright.
func (s *Store) DeleteStale(ctx context.Context, docID string, keepIDs []string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE doc_id = $1 AND chunk_id != ALL($2)`, docID, keepIDs)
	if err != nil {
		return fmt.Errorf("vectorstore.DeleteStale: %w", err)
	}
	return nil
}

// CountByDocID returns the number of chunks stored for a document.
func (s *Store) CountByDocID(ctx context.Context, docID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE doc_id = $1`, docID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("vectorstore.CountByDocID: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScoredChunk(rows rowScanner) (model.ScoredChunk, error) {
	var sc model.ScoredChunk
	var docType, chunkType, parentID, anatomy, product, treatment string
	var sessions, frequency, dosage, duration string
	err := rows.Scan(
		&sc.ChunkID, &sc.DocID, &docType, &sc.Text, &sc.CharStart, &sc.CharEnd,
		&sc.PageNumber, &sc.Section, &chunkType, &parentID,
		&anatomy, &product, &treatment, &sc.Metadata.HasProtocolInfo,
		&sessions, &frequency, &dosage, &duration,
		&sc.TokenCount, &sc.CreatedAt, &sc.Score,
	)
	if err != nil {
		return sc, err
	}
	sc.DocType = model.DocType(docType)
	sc.ChunkType = model.ChunkType(chunkType)
	sc.ParentID = parentID
	sc.Metadata.Anatomy = anatomy
	sc.Metadata.Product = product
	sc.Metadata.Treatment = treatment
	sc.Metadata.ProtocolSessions = sessions
	sc.Metadata.ProtocolFrequency = frequency
	sc.Metadata.ProtocolDosage = dosage
	sc.Metadata.ProtocolDuration = duration
	return sc, nil
}

func appendFilterPredicates(query *string, args []any, f Filter) []any {
	if f.DocType != "" {
		args = append(args, f.DocType)
		*query += fmt.Sprintf(" AND doc_type = $%d", len(args))
	}
	if f.Anatomy != "" {
		args = append(args, f.Anatomy)
		*query += fmt.Sprintf(" AND anatomy = $%d", len(args))
	}
	if f.Product != "" {
		args = append(args, f.Product)
		*query += fmt.Sprintf(" AND product = $%d", len(args))
	}
	if f.Treatment != "" {
		args = append(args, f.Treatment)
		*query += fmt.Sprintf(" AND treatment = $%d", len(args))
	}
	if len(f.DocIDs) > 0 {
		args = append(args, f.DocIDs)
		*query += fmt.Sprintf(" AND doc_id = ANY($%d)", len(args))
	}
	return args
}
