package usecase

import (
	"context"
	"errors"
	"testing"

	"ragbench/internal/core/domain"
)

func TestRetrieveRejectsNonPositiveK(t *testing.T) {
	r := NewRetriever(&embedderFake{}, &vectorStoreFake{})
	for _, k := range []int{0, -3} {
		_, err := r.Retrieve(context.Background(), "probe", k)
		if !domain.IsKind(err, domain.ErrInvalidParameter) {
			t.Fatalf("k=%d: expected ErrInvalidParameter, got %v", k, err)
		}
	}
}

func TestRetrieveEmptyIndexReturnsEmpty(t *testing.T) {
	r := NewRetriever(&embedderFake{}, &vectorStoreFake{})
	out, err := r.Retrieve(context.Background(), "probe", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no candidates from empty index, got %d", len(out))
	}
}

func TestRetrievePassesProbeAndK(t *testing.T) {
	embedder := &embedderFake{}
	store := &vectorStoreFake{nearest: []domain.RetrievedCandidate{
		candidate("a", "A", 0.9),
		candidate("b", "B", 0.8),
	}}
	r := NewRetriever(embedder, store)

	out, err := r.Retrieve(context.Background(), "probe text", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if embedder.lastQuery != "probe text" {
		t.Fatalf("embedded probe = %q", embedder.lastQuery)
	}
	if store.lastK != 2 {
		t.Fatalf("store received k=%d", store.lastK)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Fatalf("scores increase at position %d", i)
		}
	}
}

func TestRetrieveEmbedFailurePropagates(t *testing.T) {
	r := NewRetriever(&embedderFake{queryErr: errors.New("down")}, &vectorStoreFake{})
	if _, err := r.Retrieve(context.Background(), "probe", 3); err == nil {
		t.Fatalf("expected error")
	}
}
