package domain

import "time"

type RecordStatus string

const (
	StatusUploaded   RecordStatus = "uploaded"
	StatusProcessing RecordStatus = "processing"
	StatusIndexed    RecordStatus = "indexed"
	StatusFailed     RecordStatus = "failed"
)

// DocumentRecord is the bookkeeping row for one ingested document.
// There is exactly one record per distinct DocumentName; re-indexing the
// same name overwrites the record and replaces the document's chunks.
type DocumentRecord struct {
	ID           string            `json:"id"`
	DocumentName string            `json:"document_name"`
	SourcePath   string            `json:"source_path"`
	MimeType     string            `json:"mime_type,omitempty"`
	ChunkCount   int               `json:"chunk_count"`
	PageCount    int               `json:"page_count"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Status       RecordStatus      `json:"status"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
