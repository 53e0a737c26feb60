package domain

import (
	"fmt"
	"time"
)

// Strategy selects which retrieval/generation pipeline runs for a query.
type Strategy string

const (
	StrategySimple    Strategy = "simple"
	StrategyReranking Strategy = "reranking"
	StrategyHyDE      Strategy = "hyde"
)

// Strategies lists the valid strategy names in a stable order.
func Strategies() []Strategy {
	return []Strategy{StrategySimple, StrategyReranking, StrategyHyDE}
}

func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategySimple, StrategyReranking, StrategyHyDE:
		return Strategy(name), nil
	}
	return "", WrapError(
		ErrUnknownStrategy,
		"parse strategy",
		fmt.Errorf("%q is not one of %v", name, Strategies()),
	)
}

// LengthProfile controls the target length of a hypothetical document.
type LengthProfile string

const (
	LengthShort  LengthProfile = "short"
	LengthMedium LengthProfile = "medium"
	LengthLong   LengthProfile = "long"
)

// SearchParams carries the per-query knobs. Each strategy reads only the
// fields it understands. RerankTopK and RerankWeight are pointers so an
// explicit zero in the request is distinguishable from an absent field.
type SearchParams struct {
	TopK             int           `json:"top_k,omitempty"`
	RerankTopK       *int          `json:"rerank_top_k,omitempty"`
	RerankWeight     *float64      `json:"rerank_weight,omitempty"`
	LengthProfile    LengthProfile `json:"length_profile,omitempty"`
	UseOriginalQuery bool          `json:"use_original_query,omitempty"`
	PromptTemplate   string        `json:"prompt_template,omitempty"`
}

// QueryResult is the outcome of one query against one strategy.
// Never mutated after construction.
type QueryResult struct {
	Query          string               `json:"query"`
	Strategy       Strategy             `json:"strategy"`
	Answer         string               `json:"answer"`
	Context        []RetrievedCandidate `json:"context"`
	Sources        []Source             `json:"sources"`
	ProcessingTime time.Duration        `json:"processing_time_ms"`
}

// StrategyOutcome isolates one strategy's result inside a comparison:
// failures of one strategy never suppress the others.
type StrategyOutcome struct {
	Strategy Strategy
	Result   *QueryResult
	Err      error
}

func (o StrategyOutcome) Failed() bool {
	return o.Err != nil
}
