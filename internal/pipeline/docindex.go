package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// DocIndex persists one model.DocIndexRecord per doc_id as a JSON file
// under a configurable directory, mirroring the judge cache's
// one-file-per-key layout (see internal/judge).
type DocIndex struct {
	dir string
}

func NewDocIndex(dir string) *DocIndex {
	return &DocIndex{dir: dir}
}

func (d *DocIndex) path(docID string) string {
	return filepath.Join(d.dir, docID+".json")
}

// Load reads the companion record for docID, or (nil, nil) if it doesn't
// exist yet — the normal state for a document's first ingest.
func (d *DocIndex) Load(docID string) (*model.DocIndexRecord, error) {
	b, err := os.ReadFile(d.path(docID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeline.DocIndex.Load: %w", err)
	}
	var rec model.DocIndexRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("pipeline.DocIndex.Load: %w", err)
	}
	return &rec, nil
}

// Save writes rec's companion file, creating the index directory if
// necessary.
func (d *DocIndex) Save(rec *model.DocIndexRecord) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("pipeline.DocIndex.Save: %w", err)
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline.DocIndex.Save: %w", err)
	}
	if err := os.WriteFile(d.path(rec.DocID), b, 0o644); err != nil {
		return fmt.Errorf("pipeline.DocIndex.Save: %w", err)
	}
	return nil
}

// AllChunks loads every companion record under the index directory and
// returns their combined chunk set, used to rebuild the lexical index
// from scratch (internal/lexical.Index.Rebuild) without re-querying the
// vector store.
func (d *DocIndex) AllChunks() ([]model.Chunk, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeline.DocIndex.AllChunks: %w", err)
	}

	var out []model.Chunk
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(d.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("pipeline.DocIndex.AllChunks: %w", err)
		}
		var rec model.DocIndexRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("pipeline.DocIndex.AllChunks: %w", err)
		}
		out = append(out, rec.Chunks...)
	}
	return out, nil
}
