package domain

import "time"

// Document represents an uploaded file tracked through the ingestion pipeline.
type Document struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Filename  string    `json:"filename"   db:"filename"`
	MediaType string    `json:"media_type" db:"media_type"`
	ObjectKey string    `json:"-"          db:"object_key"`
	SizeBytes int64     `json:"size_bytes" db:"size_bytes"`
	Status    string    `json:"status"     db:"status"` // processing, completed, error
	Summary   string    `json:"summary"    db:"summary"`
	Tags      []string  `json:"tags"       db:"tags"`
	Embedding []float32 `json:"-"          db:"embedding"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DocumentStatus constants.
const (
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusError      = "error"
)

// SimilarDocument is returned by document-level similarity search.
type SimilarDocument struct {
	Document
	Similarity float64 `json:"similarity"`
}
