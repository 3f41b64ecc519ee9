package port

import (
	"context"

	"github.com/doclens-ai/doclens/internal/domain"
)

// DocumentStore persists document records. All reads and deletes are scoped
// by owner; a document belonging to another user behaves as not found.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d *domain.Document) (*domain.Document, error)
	GetDocument(ctx context.Context, id, userID string) (*domain.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, id, userID string) error

	// UpdateDocument is the single post-ingestion mutation: status plus the
	// optional summary, tags, and whole-document embedding.
	UpdateDocument(ctx context.Context, id, status, summary string, tags []string, embedding []float32) error
}

// ChunkStore persists and queries embedded chunks.
type ChunkStore interface {
	// InsertChunks stores the chunks of one document in chunk-index order.
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// SearchByVector returns chunks with cosine similarity strictly greater
	// than threshold, ordered by similarity descending, capped at limit.
	SearchByVector(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]domain.SimilarChunk, error)

	// SearchByKeyword returns chunks whose content contains keyword as a
	// case-insensitive substring, each assigned the given nominal score.
	SearchByKeyword(ctx context.Context, userID, keyword string, score float64, limit int) ([]domain.SimilarChunk, error)

	// RecentChunks returns the owner's newest chunks, used as degraded-mode
	// context when search yields nothing.
	RecentChunks(ctx context.Context, userID string, limit int) ([]domain.Chunk, error)

	// CountChunks reports how many chunks the owner has stored.
	CountChunks(ctx context.Context, userID string) (int, error)

	// DocumentEmbedding returns the stored whole-document embedding.
	DocumentEmbedding(ctx context.Context, docID, userID string) ([]float32, error)

	// NearestDocuments performs document-level similarity search.
	NearestDocuments(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]domain.SimilarDocument, error)
}

// ConversationStore persists chat turns.
type ConversationStore interface {
	SaveTurn(ctx context.Context, t *domain.ConversationTurn) error
	ListTurns(ctx context.Context, userID string, limit int) ([]domain.ConversationTurn, error)
}
