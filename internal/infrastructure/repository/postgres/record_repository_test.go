package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ragbench/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*RecordRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &RecordRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, document_name, source_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByNameScansMetadata(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "document_name", "source_path", "mime_type", "chunk_count", "page_count",
		"metadata", "status", "error_message", "created_at", "updated_at",
	}).AddRow(
		"rec-1", "doc.pdf", "abc_doc.pdf", "application/pdf", 12, 3,
		[]byte(`{"source":"upload"}`), "indexed", "", now, now,
	)

	mock.ExpectQuery("SELECT id, document_name, source_path").
		WithArgs("doc.pdf").
		WillReturnRows(rows)

	rec, err := repo.GetByName(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if rec.Status != domain.StatusIndexed || rec.ChunkCount != 12 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Metadata["source"] != "upload" {
		t.Fatalf("metadata not decoded: %v", rec.Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE document_records").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertIndexedClearsErrorAndSetsStatus(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO document_records").
		WithArgs(
			"rec-1", "doc.pdf", "abc_doc.pdf", "application/pdf", 12, 3,
			sqlmock.AnyArg(), string(domain.StatusIndexed), "", now, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertIndexed(context.Background(), &domain.DocumentRecord{
		ID:           "rec-1",
		DocumentName: "doc.pdf",
		SourcePath:   "abc_doc.pdf",
		MimeType:     "application/pdf",
		ChunkCount:   12,
		PageCount:    3,
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("UpsertIndexed() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStatusCountsGroupsByStatus(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("indexed", 4).
		AddRow("failed", 1)

	mock.ExpectQuery("SELECT status, COUNT").WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("StatusCounts() error = %v", err)
	}
	if counts[domain.StatusIndexed] != 4 || counts[domain.StatusFailed] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
