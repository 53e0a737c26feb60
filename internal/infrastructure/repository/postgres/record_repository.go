package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ragbench/internal/core/domain"
)

// RecordRepository persists document bookkeeping rows. Uniqueness is on
// document_name: re-uploading the same name overwrites the row.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS document_records (
	id TEXT PRIMARY KEY,
	document_name TEXT NOT NULL UNIQUE,
	source_path TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	chunk_count INTEGER NOT NULL DEFAULT 0,
	page_count INTEGER NOT NULL DEFAULT 0,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_records_status ON document_records(status);
CREATE INDEX IF NOT EXISTS idx_document_records_created_at ON document_records(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const recordColumns = `id, document_name, source_path, mime_type, chunk_count, page_count, metadata, status, error_message, created_at, updated_at`

func (r *RecordRepository) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO document_records (`+recordColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (document_name) DO UPDATE SET
	id = EXCLUDED.id,
	source_path = EXCLUDED.source_path,
	mime_type = EXCLUDED.mime_type,
	chunk_count = EXCLUDED.chunk_count,
	page_count = EXCLUDED.page_count,
	metadata = EXCLUDED.metadata,
	status = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	updated_at = EXCLUDED.updated_at
`,
		rec.ID, rec.DocumentName, rec.SourcePath, rec.MimeType, rec.ChunkCount, rec.PageCount,
		metadataJSON, string(rec.Status), rec.Error, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+recordColumns+`
FROM document_records
WHERE id = $1
`, id)
	return scanRecord(row, id)
}

func (r *RecordRepository) GetByName(ctx context.Context, documentName string) (*domain.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+recordColumns+`
FROM document_records
WHERE document_name = $1
`, documentName)
	return scanRecord(row, documentName)
}

func (r *RecordRepository) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+recordColumns+`
FROM document_records
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list document records: %w", err)
	}
	defer rows.Close()

	var records []domain.DocumentRecord
	for rows.Next() {
		rec, err := scanRecord(rows, "")
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document records: %w", err)
	}
	return records, nil
}

func (r *RecordRepository) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE document_records
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update record status", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *RecordRepository) UpsertIndexed(ctx context.Context, rec *domain.DocumentRecord) error {
	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO document_records (`+recordColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (document_name) DO UPDATE SET
	id = EXCLUDED.id,
	source_path = EXCLUDED.source_path,
	mime_type = EXCLUDED.mime_type,
	chunk_count = EXCLUDED.chunk_count,
	page_count = EXCLUDED.page_count,
	metadata = EXCLUDED.metadata,
	status = EXCLUDED.status,
	error_message = '',
	updated_at = EXCLUDED.updated_at
`,
		rec.ID, rec.DocumentName, rec.SourcePath, rec.MimeType, rec.ChunkCount, rec.PageCount,
		metadataJSON, string(domain.StatusIndexed), "", rec.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert indexed record: %w", err)
	}
	return nil
}

func (r *RecordRepository) StatusCounts(ctx context.Context) (map[domain.RecordStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT status, COUNT(*)
FROM document_records
GROUP BY status
`)
	if err != nil {
		return nil, fmt.Errorf("count record statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.RecordStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.RecordStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func (r *RecordRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM document_records`); err != nil {
		return fmt.Errorf("delete document records: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, key string) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	var metadataRaw []byte
	var status string

	err := row.Scan(
		&rec.ID, &rec.DocumentName, &rec.SourcePath, &rec.MimeType, &rec.ChunkCount, &rec.PageCount,
		&metadataRaw, &status, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "load record", fmt.Errorf("%s", key))
		}
		return nil, fmt.Errorf("scan document record: %w", err)
	}

	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal record metadata: %w", err)
		}
	}
	rec.Status = domain.RecordStatus(status)
	return &rec, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal record metadata: %w", err)
	}
	return raw, nil
}
