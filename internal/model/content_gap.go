package model

import "time"

type GapStatus string

const (
	GapStatusOpen      GapStatus = "open"
	GapStatusAddressed GapStatus = "addressed"
	GapStatusDismissed GapStatus = "dismissed"
)

// ContentGap records a query for which the evidence gate refused to
// answer (evidence_sufficient == false), along with topic hints extracted
// from the question so an operator can triage missing knowledge-base
// coverage.
type ContentGap struct {
	ID              string     `json:"id"`
	QueryText       string     `json:"queryText"`
	QueryType       QueryType  `json:"queryType"`
	ConfidenceScore float64    `json:"confidenceScore"`
	SuggestedTopics []string   `json:"suggestedTopics"`
	Status          GapStatus  `json:"status"`
	AddressedAt     *time.Time `json:"addressedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
