package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus "github.com/prometheus/client_model/go"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(prometheus.NewRegistry())
}

func TestRecordRetrieval_ObservesLatency(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRetrieval("factual", 0.25)

	observer, err := m.RetrievalDuration.GetMetricWithLabelValues("factual")
	if err != nil {
		t.Fatal(err)
	}
	var metric io_prometheus.Metric
	observer.(prometheus.Metric).Write(&metric)
	if got := metric.GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestRecordEvidenceInsufficient_Increments(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordEvidenceInsufficient()
	m.RecordEvidenceInsufficient()

	var metric io_prometheus.Metric
	m.EvidenceInsufficient.(prometheus.Metric).Write(&metric)
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("evidence_insufficient_total = %f, want 2", got)
	}
}

func TestRecordRerankerTier_LabelsByTier(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRerankerTier("cross_encoder")
	m.RecordRerankerTier("lexical_overlap")
	m.RecordRerankerTier("cross_encoder")

	counter, err := m.RerankerTierUsed.GetMetricWithLabelValues("cross_encoder")
	if err != nil {
		t.Fatal(err)
	}
	var metric io_prometheus.Metric
	counter.Write(&metric)
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("cross_encoder tier count = %f, want 2", got)
	}
}

func TestRecordEmbeddingCache_HitAndMiss(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordEmbeddingCache(true)
	m.RecordEmbeddingCache(false)
	m.RecordEmbeddingCache(false)

	var hit, miss io_prometheus.Metric
	m.EmbeddingCacheHits.(prometheus.Metric).Write(&hit)
	m.EmbeddingCacheMisses.(prometheus.Metric).Write(&miss)
	if got := hit.GetCounter().GetValue(); got != 1 {
		t.Errorf("embedding_cache_hits_total = %f, want 1", got)
	}
	if got := miss.GetCounter().GetValue(); got != 2 {
		t.Errorf("embedding_cache_misses_total = %f, want 2", got)
	}
}

func TestRecordCostLimitTripped_LabelsByCaller(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCostLimitTripped("embedding")

	counter, err := m.CostLimitTripped.GetMetricWithLabelValues("embedding")
	if err != nil {
		t.Fatal(err)
	}
	var metric io_prometheus.Metric
	counter.Write(&metric)
	if got := metric.GetCounter().GetValue(); got != 1 {
		t.Errorf("cost_limit_tripped_total{caller=embedding} = %f, want 1", got)
	}
}

func TestNilMetrics_RecordCallsAreNoOps(t *testing.T) {
	var m *Metrics

	// None of these should panic on a nil receiver.
	m.RecordRetrieval("factual", 0.1)
	m.RecordEvidenceInsufficient()
	m.RecordRerankerTier("cross_encoder")
	m.RecordEmbeddingCache(true)
	m.RecordJudgeCache(false)
	m.RecordCostLimitTripped("generation")
	m.RecordIngestDocument("processed")
}
