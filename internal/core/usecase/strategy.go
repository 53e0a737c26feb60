package usecase

import (
	"context"
	"fmt"
	"time"

	"ragbench/internal/core/domain"
)

// StrategyPipeline is the per-variant contract: candidate search and the
// full search+generate chat flow. Chat returns an explicit error; it
// never folds failures into the answer text.
type StrategyPipeline interface {
	Name() domain.Strategy
	Search(ctx context.Context, query string, params domain.SearchParams) ([]domain.RetrievedCandidate, error)
	Chat(ctx context.Context, query string, params domain.SearchParams) (*domain.QueryResult, error)
}

// StrategyRouter resolves a strategy name to its pipeline.
type StrategyRouter struct {
	pipelines map[domain.Strategy]StrategyPipeline
}

func NewStrategyRouter(pipelines ...StrategyPipeline) *StrategyRouter {
	byName := make(map[domain.Strategy]StrategyPipeline, len(pipelines))
	for _, p := range pipelines {
		byName[p.Name()] = p
	}
	return &StrategyRouter{pipelines: byName}
}

func (r *StrategyRouter) Resolve(name string) (StrategyPipeline, error) {
	strategy, err := domain.ParseStrategy(name)
	if err != nil {
		return nil, err
	}
	pipeline, ok := r.pipelines[strategy]
	if !ok {
		return nil, domain.WrapError(
			domain.ErrUnknownStrategy,
			"resolve strategy",
			fmt.Errorf("%q is not registered, valid: %v", name, domain.Strategies()),
		)
	}
	return pipeline, nil
}

// Defaults fills unset param fields before a pipeline runs.
type Defaults struct {
	SimpleTopK       int
	RerankCandidates int
	RerankTopK       int
	RerankWeight     float64
	HyDETopK         int
	HyDEProfile      domain.LengthProfile
}

// SimpleStrategy: retrieve with the raw query, then generate.
type SimpleStrategy struct {
	retriever *Retriever
	responder *ResponseGenerator
	defaults  Defaults
}

func NewSimpleStrategy(retriever *Retriever, responder *ResponseGenerator, defaults Defaults) *SimpleStrategy {
	return &SimpleStrategy{retriever: retriever, responder: responder, defaults: defaults}
}

func (s *SimpleStrategy) Name() domain.Strategy { return domain.StrategySimple }

func (s *SimpleStrategy) Search(ctx context.Context, query string, params domain.SearchParams) ([]domain.RetrievedCandidate, error) {
	k := params.TopK
	if k == 0 {
		k = s.defaults.SimpleTopK
	}
	return s.retriever.Retrieve(ctx, query, k)
}

func (s *SimpleStrategy) Chat(ctx context.Context, query string, params domain.SearchParams) (*domain.QueryResult, error) {
	return runChat(ctx, s.Name(), query, params, s.Search, s.responder)
}

// RerankingStrategy: retrieve a wider candidate set, fuse retrieval and
// semantic scores, keep the top slice.
type RerankingStrategy struct {
	retriever *Retriever
	reranker  *Reranker
	responder *ResponseGenerator
	defaults  Defaults
}

func NewRerankingStrategy(retriever *Retriever, reranker *Reranker, responder *ResponseGenerator, defaults Defaults) *RerankingStrategy {
	return &RerankingStrategy{retriever: retriever, reranker: reranker, responder: responder, defaults: defaults}
}

func (s *RerankingStrategy) Name() domain.Strategy { return domain.StrategyReranking }

func (s *RerankingStrategy) Search(ctx context.Context, query string, params domain.SearchParams) ([]domain.RetrievedCandidate, error) {
	k := params.TopK
	if k == 0 {
		k = s.defaults.RerankCandidates
	}
	topK := s.defaults.RerankTopK
	if params.RerankTopK != nil {
		topK = *params.RerankTopK
	}
	weight := s.defaults.RerankWeight
	if params.RerankWeight != nil {
		weight = *params.RerankWeight
	}

	candidates, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return s.reranker.Rerank(ctx, query, candidates, weight, topK)
}

func (s *RerankingStrategy) Chat(ctx context.Context, query string, params domain.SearchParams) (*domain.QueryResult, error) {
	return runChat(ctx, s.Name(), query, params, s.Search, s.responder)
}

// HyDEStrategy: generate a hypothetical answer document, retrieve with
// it as the probe, annotate the candidates.
type HyDEStrategy struct {
	generator *HypotheticalGenerator
	retriever *Retriever
	responder *ResponseGenerator
	defaults  Defaults
}

func NewHyDEStrategy(generator *HypotheticalGenerator, retriever *Retriever, responder *ResponseGenerator, defaults Defaults) *HyDEStrategy {
	return &HyDEStrategy{generator: generator, retriever: retriever, responder: responder, defaults: defaults}
}

func (s *HyDEStrategy) Name() domain.Strategy { return domain.StrategyHyDE }

func (s *HyDEStrategy) Search(ctx context.Context, query string, params domain.SearchParams) ([]domain.RetrievedCandidate, error) {
	k := params.TopK
	if k == 0 {
		k = s.defaults.HyDETopK
	}
	profile := params.LengthProfile
	if profile == "" {
		profile = s.defaults.HyDEProfile
	}

	hypothetical, err := s.generator.Generate(ctx, query, profile)
	if err != nil {
		return nil, err
	}

	probe := buildHyDEProbe(query, hypothetical, params.UseOriginalQuery)
	candidates, err := s.retriever.Retrieve(ctx, probe, k)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].RetrievedWith = string(domain.StrategyHyDE)
		candidates[i].HypotheticalDocument = hypothetical
	}
	return candidates, nil
}

func (s *HyDEStrategy) Chat(ctx context.Context, query string, params domain.SearchParams) (*domain.QueryResult, error) {
	return runChat(ctx, s.Name(), query, params, s.Search, s.responder)
}

type searchFunc func(ctx context.Context, query string, params domain.SearchParams) ([]domain.RetrievedCandidate, error)

func runChat(
	ctx context.Context,
	strategy domain.Strategy,
	query string,
	params domain.SearchParams,
	search searchFunc,
	responder *ResponseGenerator,
) (*domain.QueryResult, error) {
	started := time.Now()

	candidates, err := search(ctx, query, params)
	if err != nil {
		return nil, err
	}

	answer, sources, err := responder.Generate(ctx, query, candidates, params.PromptTemplate)
	if err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Query:          query,
		Strategy:       strategy,
		Answer:         answer,
		Context:        candidates,
		Sources:        sources,
		ProcessingTime: time.Since(started),
	}, nil
}
