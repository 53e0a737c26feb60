package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// Extractor reads a stored PDF and returns the plain text of each page.
// Pages without extractable text are skipped, page numbers are kept.
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

	pdfReader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", record.DocumentName, err)
	}

	var pages []domain.Page
	fonts := make(map[string]*pdf.Font)
	for number := 1; number <= pdfReader.NumPage(); number++ {
		page := pdfReader.Page(number)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", number, record.DocumentName, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, domain.Page{Number: number, Text: text})
	}
	return pages, nil
}
