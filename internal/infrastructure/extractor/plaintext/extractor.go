package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// Extractor treats the stored file as UTF-8 text and exposes it as a
// single page.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Pages(ctx context.Context, record *domain.DocumentRecord) ([]domain.Page, error) {
	reader, err := e.storage.Open(ctx, record.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("unsupported binary format: %s", record.DocumentName)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	return []domain.Page{{Number: 1, Text: text}}, nil
}
