package pipeline

import (
	"sync"
	"time"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// reportBuilder accumulates a model.RunReport across a batch ingest,
// grounded on the teacher's failDocument pattern generalized from
// single-document failure to a per-document tally that never aborts the
// rest of the batch. Safe for concurrent use by the bounded worker pool
// Service.Ingest fans a directory out onto.
type reportBuilder struct {
	mu        sync.Mutex
	startedAt time.Time
	processed int
	skipped   int
	chunks    int
	failures  []model.IngestFailure
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{startedAt: time.Now().UTC()}
}

func (b *reportBuilder) recordProcessed(chunkCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processed++
	b.chunks += chunkCount
}

func (b *reportBuilder) recordSkipped() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.skipped++
}

func (b *reportBuilder) recordFailure(sourcePath, stage string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, model.IngestFailure{
		SourcePath: sourcePath,
		Stage:      stage,
		Error:      err.Error(),
	})
}

func (b *reportBuilder) build() *model.RunReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &model.RunReport{
		StartedAt:   b.startedAt.Format(time.RFC3339),
		FinishedAt:  time.Now().UTC().Format(time.RFC3339),
		Processed:   b.processed,
		Skipped:     b.skipped,
		ChunksTotal: b.chunks,
		Failures:    b.failures,
	}
}
