package domain

// Page is one page of an already-loaded document. Extraction from the
// source format (PDF) happens at the infrastructure boundary.
type Page struct {
	Number   int               `json:"number"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is the unit of indexed text. Immutable once inserted; chunks are
// removed only by re-indexing their document or by a full clear.
type Chunk struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	Embedding    []float32         `json:"-"`
	DocumentName string            `json:"document_name"`
	SourcePath   string            `json:"source_path,omitempty"`
	Position     int               `json:"position"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// RetrievedCandidate is a chunk plus query-time scoring. Ephemeral,
// never persisted.
type RetrievedCandidate struct {
	Chunk
	Score float64 `json:"score"`

	// Set by the reranking strategy.
	Reranked      bool    `json:"reranked,omitempty"`
	OriginalScore float64 `json:"original_score,omitempty"`
	SemanticScore float64 `json:"semantic_score,omitempty"`

	// Set by the hyde strategy.
	RetrievedWith        string `json:"retrieved_with,omitempty"`
	HypotheticalDocument string `json:"hypothetical_document,omitempty"`
}

// Source points back at the chunk an answer was grounded in.
type Source struct {
	DocumentName string `json:"document_name"`
	ChunkID      string `json:"chunk_id"`
	Position     int    `json:"position"`
}
