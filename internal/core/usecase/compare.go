package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"ragbench/internal/core/domain"
)

// QueryUseCase runs a query against one strategy or fans it out across
// several for side-by-side comparison.
type QueryUseCase struct {
	router *StrategyRouter
}

func NewQueryUseCase(router *StrategyRouter) *QueryUseCase {
	return &QueryUseCase{router: router}
}

func (uc *QueryUseCase) Query(
	ctx context.Context,
	query, strategy string,
	params domain.SearchParams,
) (*domain.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrEmptyInput, "query", errors.New("query text is required"))
	}
	pipeline, err := uc.router.Resolve(strategy)
	if err != nil {
		return nil, err
	}
	return pipeline.Chat(ctx, query, params)
}

// Compare dispatches the query to every requested strategy concurrently
// and collects all outcomes before returning. One strategy failing does
// not suppress the others; its outcome carries the error instead.
func (uc *QueryUseCase) Compare(
	ctx context.Context,
	query string,
	strategies []string,
	params domain.SearchParams,
) ([]domain.StrategyOutcome, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrEmptyInput, "compare", errors.New("query text is required"))
	}
	if len(strategies) == 0 {
		all := domain.Strategies()
		strategies = make([]string, len(all))
		for i, s := range all {
			strategies[i] = string(s)
		}
	}

	outcomes := make([]domain.StrategyOutcome, len(strategies))
	var wg sync.WaitGroup
	for i, name := range strategies {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			outcomes[i] = uc.runOne(ctx, query, name, params)
		}(i, name)
	}
	wg.Wait()

	return outcomes, nil
}

func (uc *QueryUseCase) runOne(
	ctx context.Context,
	query, name string,
	params domain.SearchParams,
) domain.StrategyOutcome {
	outcome := domain.StrategyOutcome{Strategy: domain.Strategy(name)}

	pipeline, err := uc.router.Resolve(name)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	result, err := pipeline.Chat(ctx, query, params)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Result = result
	return outcome
}
