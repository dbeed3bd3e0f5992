package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

type fakeGenerator struct {
	responses map[string]string // keyed by a substring of the user prompt
	err       error
	calls     int
}

func (f *fakeGenerator) GenerateContentAt(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	for substr, resp := range f.responses {
		if contains(userPrompt, substr) {
			return resp, nil
		}
	}
	return "", errors.New("fakeGenerator: no matching response configured")
}

func contains(s, substr string) bool {
	return len(substr) == 0 || (len(s) >= len(substr) && indexOf(s, substr) >= 0)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

type fakeCache struct {
	store map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string]string{}} }

func (c *fakeCache) Get(key string) (string, bool, error) {
	v, ok := c.store[key]
	return v, ok, nil
}

func (c *fakeCache) Put(key string, value string) error {
	c.store[key] = value
	return nil
}

func testChunks() []model.ScoredChunk {
	return []model.ScoredChunk{
		{Chunk: model.Chunk{ChunkID: "c1", Text: "Sculptra is dosed at 2ml per session."}},
	}
}

func TestJudgeCase_AllDimensionsSucceed(t *testing.T) {
	gen := &fakeGenerator{responses: map[string]string{
		"Respond with JSON: {\"scores\"":                      `{"scores": [8]}`,
		"Respond with JSON: {\"claims\"":                      `{"claims": [{"claim": "Sculptra is dosed at 2ml", "verdict": "supported"}]}`,
		"Rate how directly and completely":                    `{"score": 9}`,
		"Respond with JSON: {\"accuracy\"":                    `{"accuracy": 8, "completeness": 7, "clarity": 9}`,
	}}
	j := NewJudge(gen, newFakeCache())

	heuristic := model.TriadScores{ContextRelevance: 0.5, Groundedness: 0.5, AnswerRelevance: 0.5}
	result := j.JudgeCase(context.Background(), "case-1", "What dose of Sculptra is used?", "Sculptra is dosed at 2ml per session.", testChunks(), heuristic)

	if result.Scores.ContextRelevance != 8 {
		t.Errorf("ContextRelevance = %v, want 8", result.Scores.ContextRelevance)
	}
	if result.Scores.Groundedness != 1.0 {
		t.Errorf("Groundedness = %v, want 1.0", result.Scores.Groundedness)
	}
	if result.Scores.AnswerRelevance != 9 {
		t.Errorf("AnswerRelevance = %v, want 9", result.Scores.AnswerRelevance)
	}
	wantOverall := (8.0 + 7.0 + 9.0) / 3.0
	if result.Scores.OverallQuality != wantOverall {
		t.Errorf("OverallQuality = %v, want %v", result.Scores.OverallQuality, wantOverall)
	}
	if result.FallbackReasons != nil {
		t.Errorf("expected no fallbacks, got %v", result.FallbackReasons)
	}
}

func TestJudgeCase_FallsBackToHeuristicOnGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	j := NewJudge(gen, newFakeCache())

	heuristic := model.TriadScores{ContextRelevance: 0.6, Groundedness: 0.7, AnswerRelevance: 0.8}
	result := j.JudgeCase(context.Background(), "case-2", "question", "answer", testChunks(), heuristic)

	if result.Scores.ContextRelevance != 6.0 {
		t.Errorf("ContextRelevance fallback = %v, want 6.0", result.Scores.ContextRelevance)
	}
	if result.Scores.Groundedness != 0.7 {
		t.Errorf("Groundedness fallback = %v, want 0.7", result.Scores.Groundedness)
	}
	if result.Scores.AnswerRelevance != 8.0 {
		t.Errorf("AnswerRelevance fallback = %v, want 8.0", result.Scores.AnswerRelevance)
	}
	if len(result.FallbackReasons) != 4 {
		t.Errorf("expected all 4 dimensions to record a fallback reason, got %v", result.FallbackReasons)
	}
}

func TestJudgeCase_UsesCacheOnSecondCall(t *testing.T) {
	gen := &fakeGenerator{responses: map[string]string{
		"Rate how directly and completely": `{"score": 7}`,
	}}
	cache := newFakeCache()
	j := NewJudge(gen, cache)

	heuristic := model.TriadScores{}
	j.scoreAnswerRelevance(context.Background(), "q", "a")
	callsAfterFirst := gen.calls
	j.scoreAnswerRelevance(context.Background(), "q", "a")
	_ = heuristic

	if gen.calls != callsAfterFirst {
		t.Errorf("expected the second call to hit the cache, generator was called %d times total (first call used %d)", gen.calls, callsAfterFirst)
	}
}
