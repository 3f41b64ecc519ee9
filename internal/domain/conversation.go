package domain

import "time"

// SourceRef is a truncated citation stored with a conversation turn.
type SourceRef struct {
	DocumentID     string  `json:"document_id"`
	Filename       string  `json:"filename,omitempty"`
	Content        string  `json:"content"`
	Similarity     float64 `json:"similarity"`
	EmbeddingModel string  `json:"embedding_model,omitempty"`
}

// ConversationTurn is one question/answer pair with the sources cited and,
// when decomposition ran, the sub-queries used. Immutable once stored.
type ConversationTurn struct {
	ID         string      `json:"id"          db:"id"`
	UserID     string      `json:"user_id"     db:"user_id"`
	Question   string      `json:"question"    db:"question"`
	Answer     string      `json:"answer"      db:"answer"`
	Sources    []SourceRef `json:"sources"     db:"sources"`
	SubQueries []string    `json:"sub_queries" db:"sub_queries"`
	CreatedAt  time.Time   `json:"created_at"  db:"created_at"`
}
