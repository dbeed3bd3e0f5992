// Package gap logs content gaps: questions the evidence gate (C10)
// refused to answer, with topic hints extracted from the question text
// so an operator can triage missing knowledge-base coverage. Adapted
// from the teacher's service/content_gap.go, dropping the per-user
// scoping this corpus has no equivalent of.
package gap

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// Repo defines persistence operations for content gaps.
type Repo interface {
	Insert(ctx context.Context, gap *model.ContentGap) error
	List(ctx context.Context, status string, limit int) ([]model.ContentGap, error)
	UpdateStatus(ctx context.Context, id string, status model.GapStatus) error
	CountOpen(ctx context.Context) (int, error)
}

// Service logs and manages content gaps detected by the evidence gate.
type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// LogGap records a content gap when the evidence gate refuses to answer.
func (s *Service) LogGap(ctx context.Context, question string, queryType model.QueryType, confidence float64) error {
	gap := &model.ContentGap{
		QueryText:       truncate(question, 2000),
		QueryType:       queryType,
		ConfidenceScore: confidence,
		SuggestedTopics: extractTopicHints(question),
		Status:          model.GapStatusOpen,
	}

	if err := s.repo.Insert(ctx, gap); err != nil {
		slog.Error("failed to log content gap", "error", err)
		return err
	}

	slog.Info("content gap logged",
		"gap_id", gap.ID,
		"query_type", queryType,
		"confidence", confidence,
		"topics", gap.SuggestedTopics,
	)
	return nil
}

// OpenGaps returns the open content gaps, most recent first.
func (s *Service) OpenGaps(ctx context.Context, limit int) ([]model.ContentGap, error) {
	return s.repo.List(ctx, string(model.GapStatusOpen), limit)
}

// ListGaps returns content gaps, optionally filtered by status.
func (s *Service) ListGaps(ctx context.Context, status string, limit int) ([]model.ContentGap, error) {
	return s.repo.List(ctx, status, limit)
}

// DismissGap marks a content gap as dismissed (reviewed, no action needed).
func (s *Service) DismissGap(ctx context.Context, gapID string) error {
	return s.repo.UpdateStatus(ctx, gapID, model.GapStatusDismissed)
}

// AddressGap marks a content gap as addressed (new source material ingested).
func (s *Service) AddressGap(ctx context.Context, gapID string) error {
	return s.repo.UpdateStatus(ctx, gapID, model.GapStatusAddressed)
}

// OpenGapCount returns the number of open content gaps.
func (s *Service) OpenGapCount(ctx context.Context) (int, error) {
	return s.repo.CountOpen(ctx)
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "been": true, "from": true, "this": true,
	"that": true, "they": true, "with": true, "what": true, "when": true,
	"where": true, "which": true, "will": true, "how": true, "does": true,
	"about": true, "into": true, "than": true, "them": true, "then": true,
	"there": true, "these": true, "would": true, "could": true, "should": true,
	"their": true, "other": true, "some": true, "such": true, "also": true,
	"just": true, "more": true, "most": true, "very": true, "much": true,
	"many": true, "each": true, "only": true, "like": true, "over": true,
}

// extractTopicHints returns unique words longer than 3 characters that
// aren't stop words, capped at 5, in first-seen order.
func extractTopicHints(question string) []string {
	words := strings.Fields(question)
	seen := map[string]bool{}
	var topics []string

	for _, w := range words {
		cleaned := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		lower := strings.ToLower(cleaned)

		if len(lower) <= 3 || stopWords[lower] || seen[lower] {
			continue
		}

		seen[lower] = true
		topics = append(topics, lower)
		if len(topics) >= 5 {
			break
		}
	}
	return topics
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
