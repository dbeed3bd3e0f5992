package chunker

import (
	"strings"
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func TestProtocolAwareChunker_NeverSplitsSmallProtocolSection(t *testing.T) {
	p := NewProtocolAwareChunker()
	text := "# Treatment Protocol\n\nAdminister 2 ml every 4 weeks for 3 sessions over 12 weeks. " +
		"Use a fine gauge needle and inject slowly into the target plane."

	chunks, err := p.Chunk(text, DocMeta{DocID: "doc-1", DocType: model.DocTypeProtocol})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}

	var protocolChunks int
	for _, c := range chunks {
		if c.Section == "Protocol" || c.Metadata.HasProtocolInfo {
			protocolChunks++
		}
	}
	if protocolChunks == 0 {
		t.Fatal("expected at least one protocol chunk")
	}

	// The protocol section text is well under 1200 chars, so it must
	// survive as a single chunk — sessions/frequency/dosage must all
	// appear in the same chunk's metadata.
	found := false
	for _, c := range chunks {
		if c.Metadata.ProtocolSessions != "" && c.Metadata.ProtocolFrequency != "" && c.Metadata.ProtocolDosage != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected a single chunk to carry sessions+frequency+dosage together")
	}
}

func TestProtocolAwareChunker_LargeSectionGetsSummaryPrefix(t *testing.T) {
	p := NewProtocolAwareChunker()
	var body strings.Builder
	body.WriteString("# Treatment Protocol\n\n")
	for i := 0; i < 40; i++ {
		body.WriteString("Administer 2 ml every 4 weeks for 3 sessions over 12 weeks, monitoring for erythema and edema. ")
	}

	chunks, err := p.Chunk(body.String(), DocMeta{DocID: "doc-2", DocType: model.DocTypeProtocol})
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the oversized protocol section to split into multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if !strings.HasPrefix(c.Text, "Protocol:") {
			t.Errorf("split protocol chunk missing summary prefix: %q", c.Text[:min(40, len(c.Text))])
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
