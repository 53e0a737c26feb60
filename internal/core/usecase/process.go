package usecase

import (
	"context"
	"fmt"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// ProcessUseCase is the worker-side pipeline: load the stored document,
// extract its pages, and index them.
type ProcessUseCase struct {
	records   ports.RecordStore
	extractor ports.PageExtractor
	indexer   *Indexer
}

func NewProcessUseCase(
	records ports.RecordStore,
	extractor ports.PageExtractor,
	indexer *Indexer,
) *ProcessUseCase {
	return &ProcessUseCase{
		records:   records,
		extractor: extractor,
		indexer:   indexer,
	}
}

func (uc *ProcessUseCase) ProcessByID(ctx context.Context, documentID string) error {
	rec, err := uc.records.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document record: %w", err)
	}

	if err := uc.records.UpdateStatus(ctx, rec.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.indexDocument(ctx, rec); err != nil {
		if failErr := uc.records.UpdateStatus(ctx, rec.ID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	return nil
}

func (uc *ProcessUseCase) indexDocument(ctx context.Context, rec *domain.DocumentRecord) error {
	pages, err := uc.extractor.Pages(ctx, rec)
	if err != nil {
		return fmt.Errorf("extract pages: %w", err)
	}

	if _, err := uc.indexer.Index(ctx, rec.DocumentName, rec.SourcePath, pages, rec.Metadata); err != nil {
		return err
	}
	return nil
}
