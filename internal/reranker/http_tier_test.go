package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func TestHTTPCrossEncoderTier_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		json.NewDecoder(r.Body).Decode(&req)
		scores := make([]float64, len(req.Documents))
		for i := range scores {
			scores[i] = float64(i) / 10
		}
		json.NewEncoder(w).Encode(rerankResponse{Scores: scores})
	}))
	defer srv.Close()

	tier := NewHTTPCrossEncoderTier("external", srv.URL, nil)
	candidates := []model.ScoredChunk{
		{Chunk: model.Chunk{ChunkID: "a", Text: "one"}},
		{Chunk: model.Chunk{ChunkID: "b", Text: "two"}},
	}

	scores, err := tier.Score(context.Background(), "q", candidates)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
}

func TestHTTPCrossEncoderTier_NonOKStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tier := NewHTTPCrossEncoderTier("external", srv.URL, nil)
	_, err := tier.Score(context.Background(), "q", []model.ScoredChunk{{Chunk: model.Chunk{ChunkID: "a"}}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestHTTPCrossEncoderTier_NoEndpointIsUnavailable(t *testing.T) {
	tier := NewHTTPCrossEncoderTier("local", "", nil)
	_, err := tier.Score(context.Background(), "q", []model.ScoredChunk{{Chunk: model.Chunk{ChunkID: "a"}}})
	if err == nil {
		t.Fatal("expected error for unconfigured endpoint")
	}
}
