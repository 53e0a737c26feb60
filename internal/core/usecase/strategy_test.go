package usecase

import (
	"context"
	"strings"
	"testing"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

func routerFixture(llm ports.CompletionModel, embedder *embedderFake, store *vectorStoreFake) *StrategyRouter {
	defaults := Defaults{
		SimpleTopK:       5,
		RerankCandidates: 10,
		RerankTopK:       5,
		RerankWeight:     0.6,
		HyDETopK:         5,
		HyDEProfile:      domain.LengthMedium,
	}
	retriever := NewRetriever(embedder, store)
	responder := NewResponseGenerator(llm)
	return NewStrategyRouter(
		NewSimpleStrategy(retriever, responder, defaults),
		NewRerankingStrategy(retriever, NewReranker(embedder), responder, defaults),
		NewHyDEStrategy(NewHypotheticalGenerator(llm), retriever, responder, defaults),
	)
}

func TestResolveUnknownStrategy(t *testing.T) {
	llm := &llmFake{response: "x"}
	router := routerFixture(llm, &embedderFake{}, &vectorStoreFake{})

	_, err := router.Resolve("bogus")
	if !domain.IsKind(err, domain.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	for _, name := range domain.Strategies() {
		if !strings.Contains(err.Error(), string(name)) {
			t.Fatalf("error does not list valid strategy %s: %v", name, err)
		}
	}
	if llm.calls() != 0 {
		t.Fatalf("pipeline partially executed for unknown strategy")
	}
}

func TestResolveAllKnownStrategies(t *testing.T) {
	router := routerFixture(&llmFake{}, &embedderFake{}, &vectorStoreFake{})
	for _, name := range domain.Strategies() {
		pipeline, err := router.Resolve(string(name))
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", name, err)
		}
		if pipeline.Name() != name {
			t.Fatalf("Resolve(%s) returned pipeline %s", name, pipeline.Name())
		}
	}
}

func TestSimpleChatProducesResultWithSources(t *testing.T) {
	llm := &llmFake{response: "grounded answer"}
	store := &vectorStoreFake{nearest: []domain.RetrievedCandidate{
		candidate("c1", "chunk one", 0.9),
	}}
	router := routerFixture(llm, &embedderFake{}, store)

	pipeline, err := router.Resolve("simple")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	result, err := pipeline.Chat(context.Background(), "question", domain.SearchParams{})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Strategy != domain.StrategySimple {
		t.Fatalf("result strategy = %s", result.Strategy)
	}
	if result.Answer != "grounded answer" {
		t.Fatalf("answer = %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0].ChunkID != "c1" {
		t.Fatalf("sources = %+v", result.Sources)
	}
	if result.ProcessingTime < 0 {
		t.Fatalf("processing time = %v", result.ProcessingTime)
	}
}

func TestSimpleSearchUsesDefaultTopK(t *testing.T) {
	store := &vectorStoreFake{}
	router := routerFixture(&llmFake{}, &embedderFake{}, store)

	pipeline, _ := router.Resolve("simple")
	if _, err := pipeline.Search(context.Background(), "q", domain.SearchParams{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.lastK != 5 {
		t.Fatalf("default k = %d, want 5", store.lastK)
	}
}

func TestRerankingSearchRetrievesWideThenTruncates(t *testing.T) {
	store := &vectorStoreFake{nearest: []domain.RetrievedCandidate{
		candidate("a", "A", 0.9),
		candidate("b", "B", 0.8),
		candidate("c", "C", 0.7),
	}}
	router := routerFixture(&llmFake{}, &embedderFake{}, store)

	pipeline, _ := router.Resolve("reranking")
	topK := 2
	out, err := pipeline.Search(context.Background(), "q", domain.SearchParams{RerankTopK: &topK})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.lastK != 10 {
		t.Fatalf("initial retrieval k = %d, want default 10", store.lastK)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates after rerank truncation, got %d", len(out))
	}
	for _, c := range out {
		if !c.Reranked {
			t.Fatalf("candidate %s not reranked", c.ID)
		}
	}
}

func TestChatEmptyContextReturnsFallback(t *testing.T) {
	llm := &llmFake{response: "never"}
	router := routerFixture(llm, &embedderFake{}, &vectorStoreFake{})

	pipeline, _ := router.Resolve("simple")
	result, err := pipeline.Chat(context.Background(), "question", domain.SearchParams{})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Answer != NoContextAnswer {
		t.Fatalf("answer = %q, want fallback", result.Answer)
	}
	if llm.calls() != 0 {
		t.Fatalf("LLM called despite empty context")
	}
}

func TestRerankingHonorsExplicitZeroWeight(t *testing.T) {
	// semantic similarity favors B, retrieval favors A; an explicit
	// weight of zero must keep the retrieval order instead of falling
	// back to the default blend
	embedder := &embedderFake{vectors: map[string][]float32{
		"q": {1, 0},
		"A": {0, 1},
		"B": {1, 0},
	}}
	store := &vectorStoreFake{nearest: []domain.RetrievedCandidate{
		candidate("a", "A", 0.9),
		candidate("b", "B", 0.8),
	}}
	router := routerFixture(&llmFake{}, embedder, store)
	pipeline, _ := router.Resolve("reranking")

	zero := 0.0
	out, err := pipeline.Search(context.Background(), "q", domain.SearchParams{RerankWeight: &zero})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("weight 0 order = [%s %s], want retrieval order [a b]", out[0].ID, out[1].ID)
	}

	// absent weight uses the default blend, which flips the order here
	out, err = pipeline.Search(context.Background(), "q", domain.SearchParams{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if out[0].ID != "b" {
		t.Fatalf("default-weight order starts with %s, want b", out[0].ID)
	}
}

func TestRerankingHonorsExplicitZeroTopK(t *testing.T) {
	store := &vectorStoreFake{nearest: []domain.RetrievedCandidate{candidate("a", "A", 0.9)}}
	router := routerFixture(&llmFake{}, &embedderFake{}, store)
	pipeline, _ := router.Resolve("reranking")

	zero := 0
	out, err := pipeline.Search(context.Background(), "q", domain.SearchParams{RerankTopK: &zero})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("rerank_top_k 0 returned %d candidates, want none", len(out))
	}
}
