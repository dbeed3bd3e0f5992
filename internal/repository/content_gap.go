package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// ContentGapRepo implements content gap persistence with pgx. Unlike the
// teacher's multi-tenant ContentGapRepo, gaps here aren't scoped to a
// user — this corpus serves one clinical knowledge base, not per-user
// document sets.
type ContentGapRepo struct {
	pool *pgxpool.Pool
}

// NewContentGapRepo creates a ContentGapRepo.
func NewContentGapRepo(pool *pgxpool.Pool) *ContentGapRepo {
	return &ContentGapRepo{pool: pool}
}

func (r *ContentGapRepo) Insert(ctx context.Context, gap *model.ContentGap) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO content_gaps (id, query_text, query_type, confidence_score, suggested_topics, status, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		gap.QueryText, string(gap.QueryType), gap.ConfidenceScore, pq.Array(gap.SuggestedTopics),
		string(gap.Status), time.Now().UTC(),
	).Scan(&gap.ID, &gap.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository.ContentGap.Insert: %w", err)
	}
	return nil
}

// List returns content gaps, most recent first, optionally filtered by
// status ("" lists every status).
func (r *ContentGapRepo) List(ctx context.Context, status string, limit int) ([]model.ContentGap, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, query_text, query_type, confidence_score, suggested_topics, status, addressed_at, created_at
		FROM content_gaps WHERE 1 = 1`
	args := []interface{}{}
	argIdx := 1

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, status)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.ContentGap.List: %w", err)
	}
	defer rows.Close()

	var gaps []model.ContentGap
	for rows.Next() {
		var g model.ContentGap
		var statusStr, queryType string
		if err := rows.Scan(&g.ID, &g.QueryText, &queryType, &g.ConfidenceScore,
			pq.Array(&g.SuggestedTopics), &statusStr, &g.AddressedAt, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository.ContentGap.List: scan: %w", err)
		}
		g.Status = model.GapStatus(statusStr)
		g.QueryType = model.QueryType(queryType)
		gaps = append(gaps, g)
	}
	return gaps, nil
}

func (r *ContentGapRepo) UpdateStatus(ctx context.Context, id string, status model.GapStatus) error {
	query := `UPDATE content_gaps SET status = $1`
	args := []interface{}{string(status)}

	if status == model.GapStatusAddressed {
		query += `, addressed_at = $2 WHERE id = $3`
		args = append(args, time.Now().UTC(), id)
	} else {
		query += ` WHERE id = $2`
		args = append(args, id)
	}

	_, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repository.ContentGap.UpdateStatus: %w", err)
	}
	return nil
}

func (r *ContentGapRepo) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM content_gaps WHERE status = 'open'`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository.ContentGap.CountOpen: %w", err)
	}
	return count, nil
}
