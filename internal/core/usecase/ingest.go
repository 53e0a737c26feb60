package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// IngestUseCase accepts an uploaded document, stores the raw bytes,
// creates the bookkeeping record, and hands indexing off to the worker
// through the queue.
type IngestUseCase struct {
	records ports.RecordStore
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestUseCase(
	records ports.RecordStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestUseCase {
	return &IngestUseCase{
		records: records,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.DocumentRecord, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	rec := &domain.DocumentRecord{
		ID:           id,
		DocumentName: filepath.Base(filename),
		SourcePath:   storageKey,
		MimeType:     mimeType,
		Status:       domain.StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return rec, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	// filepath.Base turns "" into "." and keeps "..", neither of which
	// is a usable filename
	if base == "" || base == "." || base == ".." {
		return "document.pdf"
	}
	return base
}
