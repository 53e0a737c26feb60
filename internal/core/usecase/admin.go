package usecase

import (
	"context"
	"fmt"

	"ragbench/internal/core/ports"
)

// AdminUseCase handles index-wide maintenance. Partial deletes are out
// of scope; clearing is all or nothing.
type AdminUseCase struct {
	vectorDB ports.VectorStore
	records  ports.RecordStore
}

func NewAdminUseCase(vectorDB ports.VectorStore, records ports.RecordStore) *AdminUseCase {
	return &AdminUseCase{vectorDB: vectorDB, records: records}
}

func (uc *AdminUseCase) ClearIndex(ctx context.Context) error {
	if err := uc.vectorDB.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector store: %w", err)
	}
	if err := uc.records.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete document records: %w", err)
	}
	return nil
}
