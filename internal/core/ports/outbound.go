package ports

import (
	"context"
	"io"

	"ragbench/internal/core/domain"
)

// Embedder builds vectors for chunk text and query probes. Result order
// and length always match the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CompletionModel is a single-shot text generator. No streaming.
type CompletionModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorStore indexes chunks and performs cosine nearest-neighbour
// search. Insertion order is the tiebreak for equal similarity.
type VectorStore interface {
	Insert(ctx context.Context, chunks []domain.Chunk) error
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.RetrievedCandidate, error)
	DeleteByDocument(ctx context.Context, documentName string) error
	Clear(ctx context.Context) error
}

// Chunker splits loaded pages into chunk drafts (no id, no embedding).
type Chunker interface {
	Split(pages []domain.Page) ([]domain.Chunk, error)
}

// RecordStore persists per-document bookkeeping records.
type RecordStore interface {
	Create(ctx context.Context, rec *domain.DocumentRecord) error
	GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error)
	GetByName(ctx context.Context, documentName string) (*domain.DocumentRecord, error)
	List(ctx context.Context) ([]domain.DocumentRecord, error)
	UpdateStatus(ctx context.Context, id string, status domain.RecordStatus, errMessage string) error
	UpsertIndexed(ctx context.Context, rec *domain.DocumentRecord) error
	StatusCounts(ctx context.Context) (map[domain.RecordStatus]int, error)
	DeleteAll(ctx context.Context) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// PageExtractor turns a stored document into ordered page texts.
type PageExtractor interface {
	Pages(ctx context.Context, rec *domain.DocumentRecord) ([]domain.Page, error)
}
