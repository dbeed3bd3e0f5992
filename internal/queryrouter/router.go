package queryrouter

import "github.com/clinicalcore/retrieval-core/internal/model"

// Router is the single entry point the retrieval orchestrator calls:
// classify the question, then build its retrieval policy.
type Router struct{}

func NewRouter() *Router { return &Router{} }

// Route classifies question and returns the model.RetrievalPolicy the
// retrieval orchestrator should apply for it.
func (r *Router) Route(question string) model.RetrievalPolicy {
	queryType := Classify(question)
	return PolicyFor(queryType, question)
}
