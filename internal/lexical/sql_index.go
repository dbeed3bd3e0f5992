package lexical

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// SQLIndex implements Index against Postgres full-text search
// (ts_rank_cd + plainto_tsquery), the same technique the teacher's
// BM25Repository uses. Unlike BM25Index, it has no separate Rebuild step —
// it is always live against whatever UpsertBatch has written to the
// chunks table, so Rebuild is a deliberate no-op.
type SQLIndex struct {
	pool *pgxpool.Pool
}

func NewSQLIndex(pool *pgxpool.Pool) *SQLIndex {
	return &SQLIndex{pool: pool}
}

// Rebuild is a no-op: Search computes to_tsvector over chunks.text at query
// time, so there is no separate corpus to swap in.
func (s *SQLIndex) Rebuild(ctx context.Context, chunks []model.Chunk) error {
	return nil
}

// Search finds chunks matching query via ts_rank_cd over the chunks table.
func (s *SQLIndex) Search(ctx context.Context, query string, topK int) ([]model.ScoredChunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			chunk_id, doc_id, doc_type, text, char_start, char_end,
			page_number, section, chunk_type, parent_id,
			anatomy, product, treatment, has_protocol_info,
			protocol_sessions, protocol_frequency, protocol_dosage, protocol_duration,
			token_count, created_at,
			ts_rank_cd(to_tsvector('english', text), plainto_tsquery('english', $1)) AS rank
		FROM chunks
		WHERE to_tsvector('english', text) @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $2`, query, topK)
	if err != nil {
		return nil, fmt.Errorf("lexical.SQLIndex.Search: %w", err)
	}
	defer rows.Close()

	var out []model.ScoredChunk
	for rows.Next() {
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
			return nil, fmt.Errorf("lexical.SQLIndex.Search: scan: %w", err)
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
		sc.Origin = model.OriginLexical
		sc.LexicalScore = sc.Score
		out = append(out, sc)
	}

	slog.Debug("lexical.SQLIndex search complete", "results", len(out), "top_k", topK)
	return out, nil
}

// Count returns the number of rows in the chunks table.
func (s *SQLIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("lexical.SQLIndex.Count: %w", err)
	}
	return n, nil
}

var _ Index = (*SQLIndex)(nil)
