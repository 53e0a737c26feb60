package usecase

import (
	"context"
	"errors"
	"fmt"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// Retriever embeds a probe text and runs cosine nearest-neighbour search
// against the vector store.
type Retriever struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore
}

func NewRetriever(embedder ports.Embedder, vectorDB ports.VectorStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		vectorDB: vectorDB,
	}
}

// Retrieve returns at most k candidates ordered by descending similarity.
// An empty index yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, probe string, k int) ([]domain.RetrievedCandidate, error) {
	if k <= 0 {
		return nil, domain.WrapError(
			domain.ErrInvalidParameter,
			"retrieve",
			fmt.Errorf("k must be positive, got %d", k),
		)
	}
	if probe == "" {
		return nil, domain.WrapError(domain.ErrInvalidParameter, "retrieve", errors.New("empty probe text"))
	}

	vector, err := r.embedder.EmbedQuery(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("embed probe: %w", err)
	}

	candidates, err := r.vectorDB.Nearest(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return candidates, nil
}
