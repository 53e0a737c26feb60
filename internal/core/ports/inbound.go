package ports

import (
	"context"
	"io"

	"ragbench/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload
// orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.DocumentRecord, error)
}

// DocumentProcessor is the inbound contract for asynchronous document
// indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// QueryService is the inbound contract for strategy-based querying.
type QueryService interface {
	Query(ctx context.Context, query, strategy string, params domain.SearchParams) (*domain.QueryResult, error)
	Compare(ctx context.Context, query string, strategies []string, params domain.SearchParams) ([]domain.StrategyOutcome, error)
}

// IndexAdmin is the inbound contract for index maintenance.
type IndexAdmin interface {
	ClearIndex(ctx context.Context) error
}
