package memvec

import (
	"context"
	"math"
	"sort"
	"sync"

	"ragbench/internal/core/domain"
)

type entry struct {
	chunk domain.Chunk
	seq   int
}

// Store is an exact cosine-scan vector store. It backs tests and the
// memory backend; the scan is linear, which is fine at playground scale.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	nextSeq int
}

func New() *Store {
	return &Store{}
}

func (s *Store) Insert(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		s.entries = append(s.entries, entry{chunk: chunk, seq: s.nextSeq})
		s.nextSeq++
	}
	return nil
}

func (s *Store) Nearest(_ context.Context, vector []float32, k int) ([]domain.RetrievedCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		entry entry
		score float64
	}
	all := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, scored{entry: e, score: cosine(vector, e.chunk.Embedding)})
	}

	// equal similarity resolves to the earliest inserted chunk
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].entry.seq < all[j].entry.seq
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]domain.RetrievedCandidate, 0, k)
	for _, sc := range all[:k] {
		out = append(out, domain.RetrievedCandidate{Chunk: sc.entry.chunk, Score: sc.score})
	}
	return out, nil
}

func (s *Store) DeleteByDocument(_ context.Context, documentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.chunk.DocumentName != documentName {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Len reports the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
