package judge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// judgeSystemPrompt is shared across dimensions; each dimension call states
// its own response schema in the user prompt, the same system/user split
// service/generator.go's GeneratorService uses.
const judgeSystemPrompt = `You are an impartial evaluator of a clinical knowledge retrieval system's output.
Respond with JSON only, matching the schema given in the prompt exactly. Do not add commentary.`

func contextRelevancePrompt(question string, chunks []model.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("Rate how relevant each retrieved passage below is to the question, 0 (irrelevant) to 10 (fully relevant).\n\n")
	sb.WriteString("QUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&sb, "PASSAGE %d:\n%s\n\n", i+1, c.Text)
	}
	sb.WriteString(`Respond with JSON: {"scores": [0-10, ...]} with one score per passage, in order.`)
	return sb.String()
}

type contextRelevanceResponse struct {
	Scores []float64 `json:"scores"`
}

func parseContextRelevance(raw string, chunkCount int) (float64, error) {
	var resp contextRelevanceResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return 0, fmt.Errorf("parse context relevance: %w", err)
	}
	if len(resp.Scores) == 0 {
		return 0, fmt.Errorf("parse context relevance: no scores returned")
	}
	var sum float64
	for _, s := range resp.Scores {
		sum += s
	}
	return sum / float64(len(resp.Scores)), nil
}

func groundednessPrompt(question, answer string, chunks []model.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("Break the answer below into its individual factual claims, then rate each claim against the supplied context: \"supported\" (fully backed by the context), \"partial\" (partially backed), or \"not_supported\" (not backed at all).\n\n")
	sb.WriteString("QUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nANSWER:\n")
	sb.WriteString(answer)
	sb.WriteString("\n\nCONTEXT:\n")
	for i, c := range chunks {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, c.Text)
	}
	sb.WriteString(`

Respond with JSON: {"claims": [{"claim": "...", "verdict": "supported|partial|not_supported"}]}`)
	return sb.String()
}

type groundednessResponse struct {
	Claims []struct {
		Claim   string `json:"claim"`
		Verdict string `json:"verdict"`
	} `json:"claims"`
}

// parseGroundedness scores supported=1.0, partial=0.5, not_supported=0.0 and
// averages — the spec names "ratio supported" as the aggregate without
// specifying partial's weight; splitting the difference is the documented
// interpretation (see DESIGN.md).
func parseGroundedness(raw string) (float64, error) {
	var resp groundednessResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return 0, fmt.Errorf("parse groundedness: %w", err)
	}
	if len(resp.Claims) == 0 {
		return 1.0, nil // no factual claims to ground (e.g. a refusal) — vacuously grounded
	}
	var sum float64
	for _, c := range resp.Claims {
		switch c.Verdict {
		case "supported":
			sum += 1.0
		case "partial":
			sum += 0.5
		}
	}
	return sum / float64(len(resp.Claims)), nil
}

func answerRelevancePrompt(question, answer string) string {
	return fmt.Sprintf(`Rate how directly and completely the answer addresses the question, 0 (irrelevant) to 10 (fully and directly addresses it).

QUESTION: %s

ANSWER:
%s

Respond with JSON: {"score": 0-10}`, question, answer)
}

type singleScoreResponse struct {
	Score float64 `json:"score"`
}

func parseSingleScore(raw string) (float64, error) {
	var resp singleScoreResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return 0, fmt.Errorf("parse score: %w", err)
	}
	return resp.Score, nil
}

func overallQualityPrompt(question, answer string) string {
	return fmt.Sprintf(`Rate the answer below on three dimensions, each 0 (poor) to 10 (excellent): accuracy (is it factually correct), completeness (does it fully address the question), clarity (is it well-written and unambiguous).

QUESTION: %s

ANSWER:
%s

Respond with JSON: {"accuracy": 0-10, "completeness": 0-10, "clarity": 0-10}`, question, answer)
}

type overallQualityResponse struct {
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
	Clarity      float64 `json:"clarity"`
}

func parseOverallQuality(raw string) (float64, error) {
	var resp overallQualityResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return 0, fmt.Errorf("parse overall quality: %w", err)
	}
	return (resp.Accuracy + resp.Completeness + resp.Clarity) / 3.0, nil
}

// stripFences removes a markdown code fence a generator sometimes wraps
// JSON in, the same fence-stripping idiom service/generator.go's
// parseGenerationResponse uses.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		if len(lines) >= 3 {
			cleaned = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	return strings.TrimSpace(cleaned)
}
