package gap

import (
	"context"
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

type mockContentGapRepo struct {
	inserted []model.ContentGap
	gaps     []model.ContentGap
	count    int
}

func (m *mockContentGapRepo) Insert(ctx context.Context, gap *model.ContentGap) error {
	gap.ID = "gap-1"
	m.inserted = append(m.inserted, *gap)
	return nil
}

func (m *mockContentGapRepo) List(ctx context.Context, status string, limit int) ([]model.ContentGap, error) {
	return m.gaps, nil
}

func (m *mockContentGapRepo) UpdateStatus(ctx context.Context, id string, status model.GapStatus) error {
	return nil
}

func (m *mockContentGapRepo) CountOpen(ctx context.Context) (int, error) {
	return m.count, nil
}

func TestService_LogGap(t *testing.T) {
	repo := &mockContentGapRepo{}
	svc := NewService(repo)

	err := svc.LogGap(context.Background(), "What dosage of sculptra is used for cheek volumization?", model.QueryProtocol, 0.42)
	if err != nil {
		t.Fatalf("LogGap() error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 inserted gap, got %d", len(repo.inserted))
	}

	gap := repo.inserted[0]
	if gap.QueryType != model.QueryProtocol {
		t.Errorf("QueryType = %q, want %q", gap.QueryType, model.QueryProtocol)
	}
	if gap.ConfidenceScore != 0.42 {
		t.Errorf("ConfidenceScore = %f, want 0.42", gap.ConfidenceScore)
	}
	if gap.Status != model.GapStatusOpen {
		t.Errorf("Status = %q, want %q", gap.Status, model.GapStatusOpen)
	}
	if len(gap.SuggestedTopics) == 0 {
		t.Error("SuggestedTopics should not be empty")
	}
}

func TestService_OpenGapCount(t *testing.T) {
	repo := &mockContentGapRepo{count: 5}
	svc := NewService(repo)

	count, err := svc.OpenGapCount(context.Background())
	if err != nil {
		t.Fatalf("OpenGapCount() error: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestService_DismissGap_AddressGap(t *testing.T) {
	repo := &mockContentGapRepo{}
	svc := NewService(repo)

	if err := svc.DismissGap(context.Background(), "gap-1"); err != nil {
		t.Fatalf("DismissGap() error: %v", err)
	}
	if err := svc.AddressGap(context.Background(), "gap-1"); err != nil {
		t.Fatalf("AddressGap() error: %v", err)
	}
}

func TestExtractTopicHints(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int // minimum number of topics expected
	}{
		{
			name:  "normal query",
			query: "What is the recommended protocol for cheek augmentation?",
			want:  2,
		},
		{
			name:  "short words only",
			query: "is it ok to do",
			want:  0,
		},
		{
			name:  "empty query",
			query: "",
			want:  0,
		},
		{
			name:  "capped at 5",
			query: "protocol dosage frequency duration sessions anatomy treatment indication contraindication adverse",
			want:  5,
		},
		{
			name:  "stop words filtered",
			query: "what about the dosage with these protocols",
			want:  1, // "dosage" and "protocols"
		},
		{
			name:  "duplicates removed",
			query: "dosage dosage dosage protocol protocol",
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTopicHints(tt.query)
			if len(got) < tt.want {
				t.Errorf("extractTopicHints(%q) = %v (len %d), want at least %d", tt.query, got, len(got), tt.want)
			}
			if len(got) > 5 {
				t.Errorf("extractTopicHints(%q) returned %d topics, max should be 5", tt.query, len(got))
			}
		})
	}
}

func TestExtractTopicHints_NoDuplicates(t *testing.T) {
	topics := extractTopicHints("protocol protocol protocol dosage dosage")
	seen := map[string]bool{}
	for _, topic := range topics {
		if seen[topic] {
			t.Errorf("duplicate topic: %q", topic)
		}
		seen[topic] = true
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q, want %q", got, "hello")
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("truncate long = %q, want %q", got, "hello")
	}
}
