package config

import "testing"

func TestLoadUsesStrategyDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("SIMPLE_TOP_K", "")
	t.Setenv("RERANK_CANDIDATES", "")
	t.Setenv("RERANK_TOP_K", "")
	t.Setenv("RERANK_WEIGHT", "")
	t.Setenv("HYDE_TOP_K", "")
	t.Setenv("HYDE_LENGTH_PROFILE", "")

	cfg := Load()
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 20 {
		t.Fatalf("chunking defaults: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.SimpleTopK != 5 {
		t.Fatalf("expected simple top k 5, got %d", cfg.SimpleTopK)
	}
	if cfg.RerankCandidates != 10 || cfg.RerankTopK != 5 {
		t.Fatalf("rerank defaults: candidates=%d top_k=%d", cfg.RerankCandidates, cfg.RerankTopK)
	}
	if cfg.RerankWeight != 0.6 {
		t.Fatalf("expected rerank weight 0.6, got %v", cfg.RerankWeight)
	}
	if cfg.HyDETopK != 5 || cfg.HyDEProfile != "medium" {
		t.Fatalf("hyde defaults: top_k=%d profile=%q", cfg.HyDETopK, cfg.HyDEProfile)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "memory")
	t.Setenv("RERANK_WEIGHT", "0.25")
	t.Setenv("RERANK_CANDIDATES", "20")
	t.Setenv("HYDE_LENGTH_PROFILE", "long")

	cfg := Load()
	if cfg.VectorBackend != "memory" {
		t.Fatalf("expected backend override, got %q", cfg.VectorBackend)
	}
	if cfg.RerankWeight != 0.25 {
		t.Fatalf("expected rerank weight 0.25, got %v", cfg.RerankWeight)
	}
	if cfg.RerankCandidates != 20 {
		t.Fatalf("expected rerank candidates 20, got %d", cfg.RerankCandidates)
	}
	if cfg.HyDEProfile != "long" {
		t.Fatalf("expected hyde profile long, got %q", cfg.HyDEProfile)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RERANK_WEIGHT", "not-a-number")
	t.Setenv("CHUNK_SIZE", "abc")

	cfg := Load()
	if cfg.RerankWeight != 0.6 {
		t.Fatalf("expected fallback weight 0.6, got %v", cfg.RerankWeight)
	}
	if cfg.ChunkSize != 500 {
		t.Fatalf("expected fallback chunk size 500, got %d", cfg.ChunkSize)
	}
}
