// Package synthetic implements the Synthetic Question Generator (C12): it
// samples chunks from the chunk store, prompts an external generator with a
// chunk-type-specific template for one question per chunk, validates and
// deduplicates the result, and emits a model.Dataset in the same schema as
// hand-written golden cases. Grounded on the teacher's service/generator.go
// (GenAIClient abstraction, JSON-fenced response parsing) generalized from
// "produce one cited answer" to "produce one validated question per chunk".
package synthetic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// Generator abstracts the external generative LLM call, the same shape as
// gcpclient.GenAIAdapter.GenerateContent — a GenAIAdapter satisfies this
// directly, so judging and synthetic generation share one adapter type
// wired up differently per call site.
type Generator interface {
	GenerateContent(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ChunkSource abstracts the chunk store's full-corpus read, the same
// interface pipeline.LexicalRebuilder's caller uses to rebuild the lexical
// index (pipeline.DocIndex.AllChunks).
type ChunkSource interface {
	AllChunks() ([]model.Chunk, error)
}

// batchSize bounds how many generation calls run before a cooperative pacing
// delay, mirroring the ≈2-6s inter-batch delay spec.md §5 requires for batch
// ingest; defaultPacingDelay sits at the low end of that window since a
// question-generation call is cheaper than a full document embed+upsert.
const (
	defaultBatchSize   = 8
	defaultPacingDelay = 3 * time.Second
)

// defaultMaxChunks is the retrieval budget recorded on every generated case;
// hand-written golden cases set this per-case, synthetic ones use one fixed
// value since there's no human author to tune it.
const defaultMaxChunks = 5

// Service drives batch synthetic question generation.
type Service struct {
	generator   Generator
	source      ChunkSource
	batchSize   int
	pacingDelay time.Duration
}

// NewService builds a Service with the default batch size and pacing delay.
func NewService(generator Generator, source ChunkSource) *Service {
	return &Service{
		generator:   generator,
		source:      source,
		batchSize:   defaultBatchSize,
		pacingDelay: defaultPacingDelay,
	}
}

// GenerateDataset samples up to n chunks stratified across doc_id,
// chunk_type, and section, generates one question per sampled chunk, and
// returns a model.Dataset pinned to version. A chunk whose generated
// question fails validation or whose generation call fails is logged and
// skipped — partial-batch failures are never fatal to the run.
func (s *Service) GenerateDataset(ctx context.Context, n int, version string) (*model.Dataset, error) {
	chunks, err := s.source.AllChunks()
	if err != nil {
		return nil, fmt.Errorf("synthetic.GenerateDataset: %w", err)
	}

	sample := sampleChunks(chunks, n)
	slog.Info("synthetic generation starting", "requested", n, "sampled", len(sample))

	var accepted []string // accepted question texts, for similarity dedup
	var cases []model.QueryCase
	var skipped int

	for batchStart := 0; batchStart < len(sample); batchStart += s.batchSize {
		batchEnd := min(batchStart+s.batchSize, len(sample))
		for _, chunk := range sample[batchStart:batchEnd] {
			qc, ok, err := s.generateOne(ctx, chunk, accepted)
			if err != nil {
				slog.Warn("synthetic generation call failed, skipping chunk", "chunk_id", chunk.ChunkID, "error", err)
				skipped++
				continue
			}
			if !ok {
				skipped++
				continue
			}
			accepted = append(accepted, qc.Question)
			cases = append(cases, qc)
		}

		if batchEnd < len(sample) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.pacingDelay):
			}
		}
	}

	slog.Info("synthetic generation finished", "accepted", len(cases), "skipped", skipped)
	return &model.Dataset{Version: version, Cases: cases}, nil
}

// generateOne prompts the generator for one chunk, validates the result
// against the already-accepted question set, and builds a QueryCase. The
// bool return is false (with a nil error) when the question is well-formed
// text that simply fails validation — a rejection, not a failure.
func (s *Service) generateOne(ctx context.Context, chunk model.Chunk, accepted []string) (model.QueryCase, bool, error) {
	systemPrompt, userPrompt := promptFor(chunk)

	raw, err := s.generator.GenerateContent(ctx, systemPrompt, userPrompt)
	if err != nil {
		return model.QueryCase{}, false, err
	}

	question := cleanQuestion(raw)
	if reason := validate(question, chunk.Text, accepted); reason != "" {
		slog.Debug("synthetic question rejected", "chunk_id", chunk.ChunkID, "reason", reason, "question", question)
		return model.QueryCase{}, false, nil
	}

	qc := model.QueryCase{
		ID:               uuid.New().String(),
		Question:         question,
		ExpectedDocIDs:   []string{chunk.DocID},
		ExpectedKeywords: extractKeywords(chunk.Text),
		ShouldRefuse:     false,
		MaxChunks:        defaultMaxChunks,
	}
	return qc, true, nil
}

// cleanQuestion strips markdown code fences and surrounding whitespace/
// quotes a generator sometimes wraps its answer in, the same fence-stripping
// idiom service/generator.go's parseGenerationResponse uses.
func cleanQuestion(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		if len(lines) >= 3 {
			cleaned = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, `"`)
	return strings.TrimSpace(cleaned)
}
