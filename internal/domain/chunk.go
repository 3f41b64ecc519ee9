package domain

import "time"

// ChunkMetadata describes where a chunk came from. Known fields cover the
// formats the extractors understand; Extra carries anything format-specific
// beyond that.
type ChunkMetadata struct {
	Type             string            `json:"type"`
	Section          string            `json:"section,omitempty"`
	Filename         string            `json:"filename,omitempty"`
	Page             int               `json:"page,omitempty"`
	Row              int               `json:"row,omitempty"`
	Sheet            string            `json:"sheet,omitempty"`
	CellType         string            `json:"cell_type,omitempty"`
	ProcessingStatus string            `json:"processing_status,omitempty"`
	EmbeddingModel   string            `json:"embedding_model,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// RawChunk is a unit of extracted text before embedding. Extractors and the
// chunker produce these; the ingestion pipeline turns them into stored Chunks.
type RawChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Chunk is a bounded span of document text stored with its embedding vector.
type Chunk struct {
	ID         string        `json:"id"          db:"id"`
	DocumentID string        `json:"document_id" db:"document_id"`
	UserID     string        `json:"user_id"     db:"user_id"`
	ChunkIndex int           `json:"chunk_index" db:"chunk_index"`
	Content    string        `json:"content"     db:"content"`
	Metadata   ChunkMetadata `json:"metadata"    db:"metadata"`
	Vector     []float32     `json:"-"           db:"vector"`
	CreatedAt  time.Time     `json:"created_at"  db:"created_at"`
}

// SimilarChunk is returned by retrieval, including its similarity score.
type SimilarChunk struct {
	Chunk
	Similarity float64 `json:"similarity"`
}

// ProcessingFailed marks chunks emitted when an extractor could not produce
// real text for a file.
const ProcessingFailed = "failed"

// EmbeddingSource labels recorded per chunk so users can see whether a vector
// came from the configured model or the local fallback.
const (
	EmbeddingSourcePrimary  = "primary"
	EmbeddingSourceFallback = "fallback"
)
