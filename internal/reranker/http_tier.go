package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// defaultTierTimeout bounds a single HTTP tier call; the chain is meant to
// fall through quickly rather than let one slow provider stall retrieval.
const defaultTierTimeout = 2 * time.Second

type rerankRequest struct {
	Query      string   `json:"query"`
	Documents  []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// HTTPCrossEncoderTier calls a cross-encoder reranking API over HTTP. Any
// endpoint with the same request/response shape works, remote or a local
// inference server; registry.WithReranker builds one such tier from
// RERANKER_ENDPOINT.
type HTTPCrossEncoderTier struct {
	name     string
	endpoint string
	client   *http.Client
}

// NewHTTPCrossEncoderTier builds a tier named name that posts to endpoint.
// A zero client gets a defaultTierTimeout deadline.
func NewHTTPCrossEncoderTier(name, endpoint string, client *http.Client) *HTTPCrossEncoderTier {
	if client == nil {
		client = &http.Client{Timeout: defaultTierTimeout}
	}
	return &HTTPCrossEncoderTier{name: name, endpoint: endpoint, client: client}
}

func (t *HTTPCrossEncoderTier) Name() string { return t.name }

func (t *HTTPCrossEncoderTier) Score(ctx context.Context, query string, candidates []model.ScoredChunk) ([]float64, error) {
	if t.endpoint == "" {
		return nil, fmt.Errorf("reranker.%s: %w: no endpoint configured", t.name, ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTierTimeout)
	defer cancel()

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Text
	}

	body, err := json.Marshal(rerankRequest{Query: query, Documents: docs})
	if err != nil {
		return nil, fmt.Errorf("reranker.%s: marshal request: %w", t.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("reranker.%s: build request: %w", t.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		slog.Warn("reranker tier request failed", "tier", t.name, "error", err)
		return nil, fmt.Errorf("reranker.%s: %w: %v", t.name, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("reranker.%s: %w: status %d: %s", t.name, ErrUnavailable, resp.StatusCode, string(b))
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("reranker.%s: decode response: %w", t.name, err)
	}
	if len(out.Scores) != len(candidates) {
		return nil, fmt.Errorf("reranker.%s: %w: got %d scores for %d candidates", t.name, ErrUnavailable, len(out.Scores), len(candidates))
	}
	return out.Scores, nil
}

var _ Tier = (*HTTPCrossEncoderTier)(nil)
var _ Tier = (*LexicalOverlapTier)(nil)
