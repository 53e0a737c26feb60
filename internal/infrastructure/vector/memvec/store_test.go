package memvec

import (
	"context"
	"testing"

	"ragbench/internal/core/domain"
)

func chunk(id, doc string, embedding []float32) domain.Chunk {
	return domain.Chunk{ID: id, DocumentName: doc, Text: id, Embedding: embedding}
}

func TestNearestOrdersByDescendingSimilarity(t *testing.T) {
	s := New()
	_ = s.Insert(context.Background(), []domain.Chunk{
		chunk("far", "d", []float32{0, 1}),
		chunk("near", "d", []float32{1, 0}),
		chunk("mid", "d", []float32{1, 1}),
	})

	out, err := s.Nearest(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	want := []string{"near", "mid", "far"}
	for i := range want {
		if out[i].ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, out[i].ID, want[i])
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Fatalf("scores increase at %d", i)
		}
	}
}

func TestNearestBreaksTiesByInsertionOrder(t *testing.T) {
	s := New()
	same := []float32{1, 0}
	_ = s.Insert(context.Background(), []domain.Chunk{
		chunk("first", "d", same),
		chunk("second", "d", same),
		chunk("third", "d", same),
	})

	out, err := s.Nearest(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if out[i].ID != want {
			t.Fatalf("tie position %d: got %s, want %s", i, out[i].ID, want)
		}
	}
}

func TestNearestCapsAtStoreSize(t *testing.T) {
	s := New()
	_ = s.Insert(context.Background(), []domain.Chunk{chunk("only", "d", []float32{1, 0})})
	out, err := s.Nearest(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(out))
	}
}

func TestDeleteByDocumentRemovesOnlyThatDocument(t *testing.T) {
	s := New()
	_ = s.Insert(context.Background(), []domain.Chunk{
		chunk("a1", "a.pdf", []float32{1, 0}),
		chunk("b1", "b.pdf", []float32{1, 0}),
		chunk("a2", "a.pdf", []float32{0, 1}),
	})

	if err := s.DeleteByDocument(context.Background(), "a.pdf"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining chunk, got %d", s.Len())
	}
	out, _ := s.Nearest(context.Background(), []float32{1, 0}, 10)
	if len(out) != 1 || out[0].ID != "b1" {
		t.Fatalf("unexpected survivors: %+v", out)
	}
}

func TestClearEmptiesStore(t *testing.T) {
	s := New()
	_ = s.Insert(context.Background(), []domain.Chunk{chunk("a", "d", []float32{1, 0})})
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("store not empty after clear")
	}
}
