package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// Reranker re-orders retrieval candidates by fusing the original
// retrieval score with a freshly computed semantic similarity score.
type Reranker struct {
	embedder ports.Embedder
}

func NewReranker(embedder ports.Embedder) *Reranker {
	return &Reranker{embedder: embedder}
}

// Rerank computes, for each candidate,
//
//	final = (1-weight)*retrieval + weight*semantic
//
// and re-sorts descending by final score. The sort is stable: equal
// final scores keep the input order. topK <= 0 yields an empty slice.
//
// If embedding fails the original order is returned untouched rather
// than failing the query; ranking quality degrades, availability does
// not.
func (r *Reranker) Rerank(
	ctx context.Context,
	query string,
	candidates []domain.RetrievedCandidate,
	weight float64,
	topK int,
) ([]domain.RetrievedCandidate, error) {
	if weight < 0 || weight > 1 {
		return nil, domain.WrapError(
			domain.ErrInvalidParameter,
			"rerank",
			fmt.Errorf("rerank weight must be in [0,1], got %g", weight),
		)
	}
	if topK <= 0 {
		return []domain.RetrievedCandidate{}, nil
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	semantic, err := r.semanticScores(ctx, query, candidates)
	if err != nil {
		slog.Warn("semantic_rerank_degraded", "error", err, "candidates", len(candidates))
		return candidates, nil
	}

	reranked := make([]domain.RetrievedCandidate, len(candidates))
	copy(reranked, candidates)
	for i := range reranked {
		original := reranked[i].Score
		reranked[i].OriginalScore = original
		reranked[i].SemanticScore = semantic[i]
		reranked[i].Score = (1-weight)*original + weight*semantic[i]
		reranked[i].Reranked = true
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	return trimCandidates(reranked, topK), nil
}

func (r *Reranker) semanticScores(
	ctx context.Context,
	query string,
	candidates []domain.RetrievedCandidate,
) ([]float64, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}
	if len(vectors) != len(candidates) {
		return nil, fmt.Errorf("vectors/candidates mismatch: %d/%d", len(vectors), len(candidates))
	}

	scores := make([]float64, len(candidates))
	for i := range vectors {
		scores[i] = cosineSimilarity(queryVector, vectors[i])
	}
	return scores, nil
}

func trimCandidates(candidates []domain.RetrievedCandidate, limit int) []domain.RetrievedCandidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}
