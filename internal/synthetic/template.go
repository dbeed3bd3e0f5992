package synthetic

import (
	"fmt"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// synthesisSystemPrompt is the shared system prompt across all chunk types;
// the chunk-type-specific instruction lives in the user prompt, the same
// split service/generator.go's buildSystemPrompt/buildUserPrompt use.
const synthesisSystemPrompt = `You are generating evaluation questions for a clinical knowledge retrieval system.
Given one passage of clinical literature, write exactly one natural-language question a practitioner
might ask that this passage alone fully answers. Do not answer the question. Do not add commentary.
Respond with the question only, ending in a question mark.`

// promptFor builds the system and user prompts for chunk, varying the user
// prompt's instruction by chunk_type: parent chunks hold broad context and
// get an overview-style prompt, child chunks hold one narrow fact and get a
// specific-detail prompt, flat chunks (no parent/child split) get a general
// prompt.
func promptFor(chunk model.Chunk) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== PASSAGE (doc_type: %s", chunk.DocType))
	if chunk.Section != "" {
		sb.WriteString(fmt.Sprintf(", section: %s", chunk.Section))
	}
	sb.WriteString(") ===\n")
	sb.WriteString(chunk.Text)
	sb.WriteString("\n\n")

	switch chunk.ChunkType {
	case model.ChunkParent:
		sb.WriteString("=== INSTRUCTION ===\nThis passage gives broad context spanning several related facts. Ask a question whose answer requires this overview, not just one sentence of it.\n")
	case model.ChunkChild:
		sb.WriteString("=== INSTRUCTION ===\nThis passage is a narrow excerpt. Ask a specific, detail-oriented question this exact passage answers.\n")
	default:
		sb.WriteString("=== INSTRUCTION ===\nAsk a focused question this passage answers on its own.\n")
	}

	return synthesisSystemPrompt, sb.String()
}
