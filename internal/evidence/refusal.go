package evidence

// RefusalResponse is the canonical structured answer returned when the
// Gate decides the evidence is insufficient, adapted from the teacher's
// service.SilenceResponse.
type RefusalResponse struct {
	Message     string   `json:"message"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
	Protocol    string   `json:"protocol"`
}

// BuildRefusal constructs the canonical refusal for an insufficient-evidence
// query. The generator must return exactly this shape rather than
// attempting to answer — this gate is what prevents hallucination.
func BuildRefusal(confidence float64) *RefusalResponse {
	return &RefusalResponse{
		Message:    "I cannot provide a sufficiently grounded answer to this question based on the indexed clinical literature.",
		Confidence: confidence,
		Suggestions: []string{
			"Ingest additional source documents covering this topic",
			"Rephrase the question with more specific clinical terminology",
			"Narrow the question to a specific product, protocol, or anatomical site",
		},
		Protocol: "EVIDENCE_GATE_REFUSAL",
	}
}
