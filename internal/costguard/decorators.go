package costguard

import (
	"context"

	"github.com/clinicalcore/retrieval-core/internal/metrics"
)

// GuardedGenerator wraps a synthetic.Generator-shaped client (single
// GenerateContent method) with a Guard. Structural typing means this
// satisfies synthetic.Generator without importing that package.
type GuardedGenerator struct {
	Inner interface {
		GenerateContent(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	}
	Guard       *Guard
	CostPerCall float64
	Metrics     *metrics.Metrics
}

func (g *GuardedGenerator) GenerateContent(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := g.Guard.Charge(g.CostPerCall); err != nil {
		g.Metrics.RecordCostLimitTripped("generation")
		return "", err
	}
	return g.Inner.GenerateContent(ctx, systemPrompt, userPrompt)
}

// GuardedJudgeGenerator wraps a judge.Generator-shaped client
// (GenerateContentAt, the fixed-temperature call the judge uses so cached
// responses stay reproducible).
type GuardedJudgeGenerator struct {
	Inner interface {
		GenerateContentAt(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
	}
	Guard       *Guard
	CostPerCall float64
	Metrics     *metrics.Metrics
}

func (g *GuardedJudgeGenerator) GenerateContentAt(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	if err := g.Guard.Charge(g.CostPerCall); err != nil {
		g.Metrics.RecordCostLimitTripped("judge")
		return "", err
	}
	return g.Inner.GenerateContentAt(ctx, systemPrompt, userPrompt, temperature)
}

// GuardedEmbedder wraps an embedding.Client-shaped adapter (EmbedTexts +
// Embed). Cost is charged per batch, not per text, matching how the
// underlying Vertex AI embedding API bills per request.
type GuardedEmbedder struct {
	Inner interface {
		EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
		Embed(ctx context.Context, texts []string) ([][]float32, error)
	}
	Guard       *Guard
	CostPerCall float64
	Metrics     *metrics.Metrics
}

func (g *GuardedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := g.Guard.Charge(g.CostPerCall); err != nil {
		g.Metrics.RecordCostLimitTripped("embedding")
		return nil, err
	}
	return g.Inner.EmbedTexts(ctx, texts)
}

func (g *GuardedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := g.Guard.Charge(g.CostPerCall); err != nil {
		g.Metrics.RecordCostLimitTripped("embedding")
		return nil, err
	}
	return g.Inner.Embed(ctx, texts)
}
