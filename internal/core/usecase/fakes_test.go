package usecase

import (
	"context"
	"fmt"
	"sync"

	"ragbench/internal/core/domain"
)

// embedderFake returns canned vectors keyed by text, or a fixed error.
type embedderFake struct {
	vectors    map[string][]float32
	defaultVec []float32
	embedErr   error
	queryErr   error

	mu          sync.Mutex
	lastQuery   string
	embedCalls  int
	queryCalls  int
	embeddedSet [][]string
}

func (f *embedderFake) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	if f.defaultVec != nil {
		return f.defaultVec
	}
	return []float32{1, 0}
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.embeddedSet = append(f.embeddedSet, texts)
	f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectorFor(t)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queryCalls++
	f.lastQuery = text
	f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.vectorFor(text), nil
}

// vectorStoreFake records inserts/deletes and serves canned candidates.
type vectorStoreFake struct {
	nearest    []domain.RetrievedCandidate
	nearestErr error
	insertErr  error
	deleteErr  error
	clearErr   error

	mu       sync.Mutex
	inserted []domain.Chunk
	deleted  []string
	cleared  bool
	lastK    int
	ops      []string
}

func (f *vectorStoreFake) Insert(_ context.Context, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "insert")
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *vectorStoreFake) Nearest(_ context.Context, _ []float32, k int) ([]domain.RetrievedCandidate, error) {
	f.mu.Lock()
	f.lastK = k
	f.mu.Unlock()
	if f.nearestErr != nil {
		return nil, f.nearestErr
	}
	if len(f.nearest) > k {
		return f.nearest[:k], nil
	}
	return f.nearest, nil
}

func (f *vectorStoreFake) DeleteByDocument(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *vectorStoreFake) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	return nil
}

// llmFake records prompts and returns a fixed completion.
type llmFake struct {
	response string
	err      error

	mu      sync.Mutex
	prompts []string
}

func (f *llmFake) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *llmFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// recordStoreFake keeps records in memory, keyed by name for upserts.
type recordStoreFake struct {
	upsertErr error

	mu     sync.Mutex
	byID   map[string]*domain.DocumentRecord
	byName map[string]*domain.DocumentRecord
}

func newRecordStoreFake() *recordStoreFake {
	return &recordStoreFake{
		byID:   make(map[string]*domain.DocumentRecord),
		byName: make(map[string]*domain.DocumentRecord),
	}
}

func (f *recordStoreFake) Create(_ context.Context, rec *domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[rec.ID] = rec
	f.byName[rec.DocumentName] = rec
	return nil
}

func (f *recordStoreFake) GetByID(_ context.Context, id string) (*domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byID[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get record", fmt.Errorf("id %s", id))
	}
	return rec, nil
}

func (f *recordStoreFake) GetByName(_ context.Context, name string) (*domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byName[name]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get record", fmt.Errorf("name %s", name))
	}
	return rec, nil
}

func (f *recordStoreFake) List(context.Context) ([]domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DocumentRecord, 0, len(f.byName))
	for _, rec := range f.byName {
		out = append(out, *rec)
	}
	return out, nil
}

func (f *recordStoreFake) UpdateStatus(_ context.Context, id string, status domain.RecordStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byID[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update status", fmt.Errorf("id %s", id))
	}
	rec.Status = status
	rec.Error = errMessage
	return nil
}

func (f *recordStoreFake) UpsertIndexed(_ context.Context, rec *domain.DocumentRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byName[rec.DocumentName]; ok {
		delete(f.byID, existing.ID)
	}
	f.byName[rec.DocumentName] = rec
	f.byID[rec.ID] = rec
	return nil
}

func (f *recordStoreFake) StatusCounts(context.Context) (map[domain.RecordStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[domain.RecordStatus]int)
	for _, rec := range f.byName {
		out[rec.Status]++
	}
	return out, nil
}

func (f *recordStoreFake) DeleteAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID = make(map[string]*domain.DocumentRecord)
	f.byName = make(map[string]*domain.DocumentRecord)
	return nil
}

func candidate(id, text string, score float64) domain.RetrievedCandidate {
	return domain.RetrievedCandidate{
		Chunk: domain.Chunk{ID: id, Text: text, DocumentName: "doc.pdf"},
		Score: score,
	}
}
