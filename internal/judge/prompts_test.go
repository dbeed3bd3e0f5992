package judge

import "testing"

func TestParseContextRelevance_Mean(t *testing.T) {
	got, err := parseContextRelevance(`{"scores": [10, 4]}`, 2)
	if err != nil {
		t.Fatalf("parseContextRelevance() error: %v", err)
	}
	if got != 7.0 {
		t.Errorf("parseContextRelevance = %v, want 7.0", got)
	}
}

func TestParseContextRelevance_NoScoresErrors(t *testing.T) {
	if _, err := parseContextRelevance(`{"scores": []}`, 1); err == nil {
		t.Error("expected an error for an empty scores list")
	}
}

func TestParseGroundedness_MixedVerdicts(t *testing.T) {
	raw := `{"claims": [{"claim": "a", "verdict": "supported"}, {"claim": "b", "verdict": "partial"}, {"claim": "c", "verdict": "not_supported"}]}`
	got, err := parseGroundedness(raw)
	if err != nil {
		t.Fatalf("parseGroundedness() error: %v", err)
	}
	want := (1.0 + 0.5 + 0.0) / 3.0
	if got != want {
		t.Errorf("parseGroundedness = %v, want %v", got, want)
	}
}

func TestParseGroundedness_NoClaimsIsVacuouslyGrounded(t *testing.T) {
	got, err := parseGroundedness(`{"claims": []}`)
	if err != nil {
		t.Fatalf("parseGroundedness() error: %v", err)
	}
	if got != 1.0 {
		t.Errorf("parseGroundedness(no claims) = %v, want 1.0", got)
	}
}

func TestParseSingleScore(t *testing.T) {
	got, err := parseSingleScore(`{"score": 6.5}`)
	if err != nil {
		t.Fatalf("parseSingleScore() error: %v", err)
	}
	if got != 6.5 {
		t.Errorf("parseSingleScore = %v, want 6.5", got)
	}
}

func TestParseOverallQuality_Mean(t *testing.T) {
	got, err := parseOverallQuality(`{"accuracy": 9, "completeness": 6, "clarity": 9}`)
	if err != nil {
		t.Fatalf("parseOverallQuality() error: %v", err)
	}
	if got != 8.0 {
		t.Errorf("parseOverallQuality = %v, want 8.0", got)
	}
}

func TestStripFences_RemovesMarkdownFence(t *testing.T) {
	raw := "```json\n{\"score\": 5}\n```"
	got := stripFences(raw)
	if got != `{"score": 5}` {
		t.Errorf("stripFences = %q, want raw JSON", got)
	}
}
