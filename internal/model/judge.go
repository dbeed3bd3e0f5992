package model

// JudgeScores holds the four LLM Judge (C13) dimensions. ContextRelevance,
// AnswerRelevance, and OverallQuality are mean 0-10 ratings; Groundedness is
// a 0-1 ratio of claims rated supported — the spec intentionally keeps
// these on different scales (see spec.md §4.14's per-dimension table), so
// this type does not unify them the way TriadScores unifies its three
// heuristic dimensions onto a common [0,1] scale.
type JudgeScores struct {
	ContextRelevance float64 `json:"contextRelevance"`
	Groundedness     float64 `json:"groundedness"`
	AnswerRelevance  float64 `json:"answerRelevance"`
	OverallQuality   float64 `json:"overallQuality"`
}

// JudgeResult is the outcome of judging one case against the four
// dimensions. FallbackReasons maps a dimension name to why its judge call
// failed and it fell back to heuristic triad scoring instead.
type JudgeResult struct {
	CaseID          string            `json:"caseId"`
	Scores          JudgeScores       `json:"scores"`
	FallbackReasons map[string]string `json:"fallbackReasons,omitempty"`
}

// JudgeReport summarizes an LLM Judge run (C13) over a full dataset,
// mirroring evalharness.Report's pinned-to-a-dataset-version shape so the
// two reports sit side by side on disk in the same eval-artifact style.
type JudgeReport struct {
	DatasetVersion      string        `json:"datasetVersion"`
	TotalCases          int           `json:"totalCases"`
	MeanContextRelevance float64      `json:"meanContextRelevance"`
	MeanGroundedness    float64       `json:"meanGroundedness"`
	MeanAnswerRelevance float64       `json:"meanAnswerRelevance"`
	MeanOverallQuality  float64       `json:"meanOverallQuality"`
	Results             []JudgeResult `json:"results"`
}
