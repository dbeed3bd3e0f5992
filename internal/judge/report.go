package judge

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/clinicalcore/retrieval-core/internal/evalharness"
	"github.com/clinicalcore/retrieval-core/internal/model"
)

// maxConcurrentCases bounds the worker pool JudgeDataset fans cases out
// onto, matching evalharness.RunDataset's own case-level concurrency cap —
// each case already runs its four dimensions in parallel inside JudgeCase,
// so the dataset-level limit keeps total in-flight LLM calls bounded.
const maxConcurrentCases = 4

// Runner abstracts evalharness.Runner's case-plus-bundle execution so
// JudgeDataset doesn't need the full orchestrator/gate wiring itself — it
// only needs a heuristic score and a retrieval bundle to judge against.
type Runner interface {
	RunCaseWithBundle(ctx context.Context, qc model.QueryCase) (model.CaseResult, *model.RetrievalBundle, error)
}

var _ Runner = (*evalharness.Runner)(nil)

// JudgeDataset runs every case in ds through runner to obtain its
// heuristic triad and retrieval bundle, then scores it with j.JudgeCase.
// A case whose retrieval fails is recorded with a single fallback reason
// covering all four dimensions rather than aborting the run.
func (j *Judge) JudgeDataset(ctx context.Context, runner Runner, ds model.Dataset) (*model.JudgeReport, error) {
	results := make([]model.JudgeResult, len(ds.Cases))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCases)
	for i, qc := range ds.Cases {
		i, qc := i, qc
		g.Go(func() error {
			caseResult, bundle, err := runner.RunCaseWithBundle(gCtx, qc)
			if err != nil {
				results[i] = model.JudgeResult{
					CaseID:          qc.ID,
					FallbackReasons: map[string]string{"retrieval": err.Error()},
				}
				return nil
			}
			results[i] = j.JudgeCase(gCtx, qc.ID, qc.Question, caseResult.Answer, bundle.Chunks, caseResult.Triad)
			return nil
		})
	}
	_ = g.Wait() // every case records its own outcome above, never propagated

	return buildJudgeReport(ds.Version, results), nil
}

func buildJudgeReport(version string, results []model.JudgeResult) *model.JudgeReport {
	report := &model.JudgeReport{DatasetVersion: version, TotalCases: len(results), Results: results}
	if len(results) == 0 {
		return report
	}

	var sumContext, sumGrounded, sumAnswer, sumOverall float64
	for _, res := range results {
		sumContext += res.Scores.ContextRelevance
		sumGrounded += res.Scores.Groundedness
		sumAnswer += res.Scores.AnswerRelevance
		sumOverall += res.Scores.OverallQuality
	}
	n := float64(len(results))
	report.MeanContextRelevance = sumContext / n
	report.MeanGroundedness = sumGrounded / n
	report.MeanAnswerRelevance = sumAnswer / n
	report.MeanOverallQuality = sumOverall / n
	return report
}
