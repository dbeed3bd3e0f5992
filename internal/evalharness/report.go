package evalharness

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// maxConcurrentCases bounds the worker pool RunDataset fans cases out onto,
// the same errgroup.SetLimit shape pipeline.Service.Ingest uses for its
// document fan-out.
const maxConcurrentCases = 4

// Report summarizes a full dataset run, pinned to the dataset version it
// was scored against.
type Report struct {
	DatasetVersion       string              `json:"datasetVersion"`
	TotalCases           int                 `json:"totalCases"`
	PassRate             float64             `json:"passRate"`
	MeanContextRelevance float64             `json:"meanContextRelevance"`
	MeanGroundedness     float64             `json:"meanGroundedness"`
	MeanAnswerRelevance  float64             `json:"meanAnswerRelevance"`
	ImprovementCandidates map[string][]string `json:"improvementCandidates"`
	Results              []model.CaseResult  `json:"results"`
}

// RunDataset runs every case in ds concurrently and aggregates a Report.
// A case that errors is recorded as a failing result rather than aborting
// the run, matching the ingestion pipeline's per-document failure
// tolerance.
func (r *Runner) RunDataset(ctx context.Context, ds model.Dataset) (*Report, error) {
	results := make([]model.CaseResult, len(ds.Cases))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCases)
	for i, qc := range ds.Cases {
		i, qc := i, qc
		g.Go(func() error {
			res, err := r.RunCase(gCtx, qc)
			if err != nil {
				res = model.CaseResult{
					CaseID:         qc.ID,
					Pass:           false,
					Method:         "heuristic",
					FallbackReason: err.Error(),
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // RunCase errors are captured per-case above, never propagated

	return buildReport(ds.Version, results), nil
}

func buildReport(version string, results []model.CaseResult) *Report {
	report := &Report{
		DatasetVersion: version,
		TotalCases:     len(results),
		Results:        results,
		ImprovementCandidates: map[string][]string{
			"context_relevance": {},
			"groundedness":      {},
			"answer_relevance":  {},
		},
	}
	if len(results) == 0 {
		return report
	}

	var passed int
	var sumContext, sumGrounded, sumAnswer float64
	for _, res := range results {
		if res.Pass {
			passed++
		}
		sumContext += res.Triad.ContextRelevance
		sumGrounded += res.Triad.Groundedness
		sumAnswer += res.Triad.AnswerRelevance

		if res.Triad.ContextRelevance < dimensionFailThreshold {
			report.ImprovementCandidates["context_relevance"] = append(report.ImprovementCandidates["context_relevance"], res.CaseID)
		}
		if res.Triad.Groundedness < dimensionFailThreshold {
			report.ImprovementCandidates["groundedness"] = append(report.ImprovementCandidates["groundedness"], res.CaseID)
		}
		if res.Triad.AnswerRelevance < dimensionFailThreshold {
			report.ImprovementCandidates["answer_relevance"] = append(report.ImprovementCandidates["answer_relevance"], res.CaseID)
		}
	}

	n := float64(len(results))
	report.PassRate = float64(passed) / n
	report.MeanContextRelevance = sumContext / n
	report.MeanGroundedness = sumGrounded / n
	report.MeanAnswerRelevance = sumAnswer / n

	return report
}

// dimensionFailThreshold flags a case as an improvement candidate for a
// triad dimension when that dimension alone falls below it — independent
// of the combined triad pass/fail gate.
const dimensionFailThreshold = 0.70
