package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// Metadata keys owned by the indexer. Caller-supplied metadata wins on
// collision with anything else, but never with these.
var reservedMetadataKeys = map[string]struct{}{
	"id":            {},
	"position":      {},
	"document_name": {},
}

// Indexer attaches identity and metadata to chunk drafts, embeds them
// and inserts them into the vector store as one logical batch, then
// upserts the document's bookkeeping record.
//
// Re-indexing a document name first deletes the name's existing chunks,
// so retrieval never returns stale duplicates.
type Indexer struct {
	chunker  ports.Chunker
	embedder ports.Embedder
	vectorDB ports.VectorStore
	records  ports.RecordStore

	// Serializes record writes for the same document name.
	mu sync.Mutex
}

func NewIndexer(
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	records ports.RecordStore,
) *Indexer {
	return &Indexer{
		chunker:  chunker,
		embedder: embedder,
		vectorDB: vectorDB,
		records:  records,
	}
}

func (ix *Indexer) Index(
	ctx context.Context,
	documentName, sourcePath string,
	pages []domain.Page,
	extra map[string]string,
) (*domain.DocumentRecord, error) {
	chunks, err := ix.chunker.Split(pages)
	if err != nil {
		return nil, err
	}

	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		chunks[i].Position = i
		chunks[i].DocumentName = documentName
		chunks[i].SourcePath = sourcePath
		chunks[i].Metadata = mergeMetadata(chunks[i].Metadata, extra)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexing, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrIndexing,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := ix.vectorDB.DeleteByDocument(ctx, documentName); err != nil {
		return nil, domain.WrapError(domain.ErrIndexing, "delete stale chunks", err)
	}
	if err := ix.vectorDB.Insert(ctx, chunks); err != nil {
		return nil, domain.WrapError(domain.ErrIndexing, "insert chunks", err)
	}

	now := time.Now().UTC()
	rec := &domain.DocumentRecord{
		ID:           uuid.NewString(),
		DocumentName: documentName,
		SourcePath:   sourcePath,
		ChunkCount:   len(chunks),
		PageCount:    len(pages),
		Metadata:     extra,
		Status:       domain.StatusIndexed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ix.mu.Lock()
	if existing, lookupErr := ix.records.GetByName(ctx, documentName); lookupErr == nil {
		rec.ID = existing.ID
		rec.MimeType = existing.MimeType
		rec.CreatedAt = existing.CreatedAt
	}
	err = ix.records.UpsertIndexed(ctx, rec)
	ix.mu.Unlock()
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexing, "upsert document record", err)
	}
	return rec, nil
}

// mergeMetadata merges caller metadata over chunk metadata. Reserved
// keys are dropped from both: identity fields live on the chunk itself.
func mergeMetadata(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		if _, reserved := reservedMetadataKeys[k]; reserved {
			continue
		}
		out[k] = v
	}
	for k, v := range extra {
		if _, reserved := reservedMetadataKeys[k]; reserved {
			continue
		}
		out[k] = v
	}
	return out
}
