package extractor

import (
	"context"
	"strings"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// Dispatcher routes a document to the extractor registered for its
// MIME type, falling back to a default for everything else.
type Dispatcher struct {
	byMIME   map[string]ports.PageExtractor
	fallback ports.PageExtractor
}

func NewDispatcher(fallback ports.PageExtractor) *Dispatcher {
	return &Dispatcher{
		byMIME:   make(map[string]ports.PageExtractor),
		fallback: fallback,
	}
}

func (d *Dispatcher) Register(mimeType string, extractor ports.PageExtractor) {
	d.byMIME[normalizeMIME(mimeType)] = extractor
}

func (d *Dispatcher) Pages(ctx context.Context, record *domain.DocumentRecord) ([]domain.Page, error) {
	if extractor, ok := d.byMIME[normalizeMIME(record.MimeType)]; ok {
		return extractor.Pages(ctx, record)
	}
	return d.fallback.Pages(ctx, record)
}

func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}
