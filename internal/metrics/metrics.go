// Package metrics defines the Prometheus collectors for this core.
// Adapted from internal/middleware/monitoring.go's Metrics struct: the
// HTTP middleware wrapper (Monitoring(), metricsWriter, sanitizePath) is
// dropped since there is no HTTP layer here, but the collector-construction
// idiom — one struct built and registered by NewMetrics, incremented
// directly by callers — is kept as-is.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every Prometheus collector this core exposes. Fields are
// safe to call on a nil *Metrics (see the helper methods below), so
// instrumenting a component is opt-in: callers that never receive a
// *Metrics still run correctly, just unobserved.
type Metrics struct {
	RetrievalDuration    *prometheus.HistogramVec
	EvidenceInsufficient prometheus.Counter
	RerankerTierUsed     *prometheus.CounterVec
	EmbeddingCacheHits   prometheus.Counter
	EmbeddingCacheMisses prometheus.Counter
	JudgeCacheHits       prometheus.Counter
	JudgeCacheMisses     prometheus.Counter
	CostLimitTripped     *prometheus.CounterVec
	IngestDocumentsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers every collector against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RetrievalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retrieval_duration_seconds",
				Help:    "Orchestrator.Retrieve latency in seconds, by query type.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"query_type"},
		),
		EvidenceInsufficient: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "evidence_insufficient_total",
				Help: "Total number of retrievals the Evidence Evaluator judged insufficient to answer.",
			},
		),
		RerankerTierUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reranker_tier_used_total",
				Help: "Total number of reranks served by each tier in the chain.",
			},
			[]string{"tier"},
		),
		EmbeddingCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "embedding_cache_hits_total",
				Help: "Total embedding gateway cache hits.",
			},
		),
		EmbeddingCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "embedding_cache_misses_total",
				Help: "Total embedding gateway cache misses.",
			},
		),
		JudgeCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "judge_cache_hits_total",
				Help: "Total LLM judge cache hits.",
			},
		),
		JudgeCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "judge_cache_misses_total",
				Help: "Total LLM judge cache misses.",
			},
		),
		CostLimitTripped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cost_limit_tripped_total",
				Help: "Total number of calls rejected by the daily cost circuit breaker, by caller.",
			},
			[]string{"caller"},
		),
		IngestDocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_documents_total",
				Help: "Total documents processed by the ingestion pipeline, by outcome.",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.RetrievalDuration, m.EvidenceInsufficient, m.RerankerTierUsed,
		m.EmbeddingCacheHits, m.EmbeddingCacheMisses,
		m.JudgeCacheHits, m.JudgeCacheMisses,
		m.CostLimitTripped, m.IngestDocumentsTotal,
	)
	return m
}

// RecordRetrieval observes one Orchestrator.Retrieve call's latency,
// labeled by query type. Safe on nil.
func (m *Metrics) RecordRetrieval(queryType string, seconds float64) {
	if m == nil {
		return
	}
	m.RetrievalDuration.WithLabelValues(queryType).Observe(seconds)
}

// RecordEvidenceInsufficient increments EvidenceInsufficient. Safe on nil.
func (m *Metrics) RecordEvidenceInsufficient() {
	if m == nil {
		return
	}
	m.EvidenceInsufficient.Inc()
}

// RecordRerankerTier increments RerankerTierUsed for the given tier name.
// Safe on nil.
func (m *Metrics) RecordRerankerTier(tier string) {
	if m == nil {
		return
	}
	m.RerankerTierUsed.WithLabelValues(tier).Inc()
}

// RecordEmbeddingCache increments the embedding cache hit or miss counter.
// Safe on nil.
func (m *Metrics) RecordEmbeddingCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.EmbeddingCacheHits.Inc()
	} else {
		m.EmbeddingCacheMisses.Inc()
	}
}

// RecordJudgeCache increments the judge cache hit or miss counter. Safe on
// nil.
func (m *Metrics) RecordJudgeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.JudgeCacheHits.Inc()
	} else {
		m.JudgeCacheMisses.Inc()
	}
}

// RecordCostLimitTripped increments CostLimitTripped for the given caller
// label (e.g. "embedding", "generation"). Safe on nil.
func (m *Metrics) RecordCostLimitTripped(caller string) {
	if m == nil {
		return
	}
	m.CostLimitTripped.WithLabelValues(caller).Inc()
}

// RecordIngestDocument increments IngestDocumentsTotal for the given
// outcome label (e.g. "processed", "skipped", "failed"). Safe on nil.
func (m *Metrics) RecordIngestDocument(outcome string) {
	if m == nil {
		return
	}
	m.IngestDocumentsTotal.WithLabelValues(outcome).Inc()
}
