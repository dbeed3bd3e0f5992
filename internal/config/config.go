package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment
// variables. It is immutable after Load() returns.
type Config struct {
	Environment string

	DatabaseURL      string
	DatabaseMaxConns int

	GCPProject string
	GCPRegion  string

	VertexAILocation string
	VertexAIModel    string

	EmbeddingLocation   string
	EmbeddingModel      string
	EmbeddingDimension  int
	EmbeddingCacheTTLSeconds int
	MaxSegments         int
	SegmentChars        int

	GCSBucketName    string
	DocAIProcessorID string
	DocAILocation    string

	VectorCacheTTLSeconds int
	VectorBatchSize       int

	StrongMatchThreshold          float64
	EvidenceSufficiencyThreshold  float64

	HybridVectorWeight float64
	HybridBM25Weight   float64

	RetrievalFinalK int

	RerankerEnabled  bool
	RerankTopK       int
	RerankerProvider string
	RerankerEndpoint string
	RerankerTimeoutSeconds int

	DailyCostThresholdUSD float64

	JudgeCacheDir       string
	JudgeModel          string
	RecallThreshold     float64
	KeywordThreshold    float64
	TriadPassThreshold  float64

	BleveIndexDir string
	DocIndexDir   string
}

// Load reads configuration from environment variables. Required variables
// (DATABASE_URL, GOOGLE_CLOUD_PROJECT) cause an error if missing. Optional
// variables use sensible defaults drawn from SPEC_FULL's environment
// configuration table.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("config.Load: DATABASE_URL is required")
	}

	gcpProject := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if gcpProject == "" {
		return nil, fmt.Errorf("config.Load: GOOGLE_CLOUD_PROJECT is required")
	}

	cfg := &Config{
		Environment: envStr("ENVIRONMENT", "development"),

		DatabaseURL:      dbURL,
		DatabaseMaxConns: envInt("DATABASE_MAX_CONNS", 25),

		GCPProject: gcpProject,
		GCPRegion:  envStr("GCP_REGION", "us-east4"),

		VertexAILocation: envStr("VERTEX_AI_LOCATION", "global"),
		VertexAIModel:    envStr("VERTEX_AI_MODEL", "gemini-3-pro-preview"),

		EmbeddingLocation:        envStr("VERTEX_AI_EMBEDDING_LOCATION", envStr("GCP_REGION", "us-east4")),
		EmbeddingModel:           envStr("VERTEX_AI_EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDimension:       envInt("EMBEDDING_DIMENSION", 1536),
		EmbeddingCacheTTLSeconds: envInt("EMBEDDING_CACHE_TTL_SECONDS", 3600),
		MaxSegments:              envInt("EMBEDDING_MAX_SEGMENTS", 8),
		SegmentChars:             envInt("EMBEDDING_SEGMENT_CHARS", 2000),

		GCSBucketName:    envStr("GCS_BUCKET_NAME", ""),
		DocAIProcessorID: envStr("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocAILocation:    envStr("DOCUMENT_AI_LOCATION", "us"),

		VectorCacheTTLSeconds: envInt("VECTOR_CACHE_TTL_SECONDS", 1800),
		VectorBatchSize:       envInt("VECTOR_BATCH_SIZE", 100),

		StrongMatchThreshold:         envFloat("STRONG_MATCH_THRESHOLD", 0.50),
		EvidenceSufficiencyThreshold: envFloat("EVIDENCE_SUFFICIENCY_THRESHOLD", 0.50),

		HybridVectorWeight: envFloat("HYBRID_VECTOR_WEIGHT", 0.7),
		HybridBM25Weight:   envFloat("HYBRID_BM25_WEIGHT", 0.3),

		RetrievalFinalK: envInt("RETRIEVAL_FINAL_K", 5),

		RerankerEnabled:        envBool("RERANKER_ENABLED", true),
		RerankTopK:             envInt("RERANK_TOP_K", 20),
		RerankerProvider:       envStr("RERANKER_PROVIDER", "cross_encoder_api"),
		RerankerEndpoint:       envStr("RERANKER_ENDPOINT", ""),
		RerankerTimeoutSeconds: envInt("RERANKER_TIMEOUT_SECONDS", 2),

		DailyCostThresholdUSD: envFloat("DAILY_COST_THRESHOLD_USD", 50.0),

		JudgeCacheDir:      envStr("JUDGE_CACHE_DIR", "./.judge-cache"),
		JudgeModel:         envStr("JUDGE_MODEL", "gemini-3-pro-preview"),
		RecallThreshold:    envFloat("EVAL_RECALL_THRESHOLD", 0.5),
		KeywordThreshold:   envFloat("EVAL_KEYWORD_THRESHOLD", 0.3),
		TriadPassThreshold: envFloat("EVAL_TRIAD_THRESHOLD", 0.70),

		BleveIndexDir: envStr("BLEVE_INDEX_DIR", "./.lexical-index"),
		DocIndexDir:   envStr("DOC_INDEX_DIR", "./.doc-index"),
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
