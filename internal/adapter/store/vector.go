package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/port"
)

// VectorStore handles pgvector-specific operations for chunk embeddings.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// InsertChunks persists one document's chunks in chunk-index order.
func (v *VectorStore) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, user_id, chunk_index, content, metadata, vector)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6::vector)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if len(c.Vector) != v.dimension {
			return fmt.Errorf("chunk %d: %w: got %d, index expects %d",
				c.ChunkIndex, port.ErrDimensionMismatch, len(c.Vector), v.dimension)
		}
		metaJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.DocumentID, c.UserID, c.ChunkIndex, c.Content, metaJSON, vectorToString(c.Vector),
		); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

const chunkColumns = `c.id, c.document_id, c.user_id, c.chunk_index, c.content, c.metadata, c.created_at`

// SearchByVector returns the owner's chunks with cosine similarity strictly
// greater than threshold, most similar first.
func (v *VectorStore) SearchByVector(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]domain.SimilarChunk, error) {
	query := `SELECT ` + chunkColumns + `,
	                 1 - (c.vector <=> $1::vector) AS similarity
	          FROM chunks c
	          WHERE c.user_id = $2
	            AND 1 - (c.vector <=> $1::vector) > $3
	          ORDER BY c.vector <=> $1::vector
	          LIMIT $4`

	rows, err := v.store.db.QueryContext(ctx, query, vectorToString(vector), userID, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	return scanSimilarChunks(rows)
}

// SearchByKeyword returns the owner's chunks containing keyword as a
// case-insensitive substring, each assigned the fixed nominal score.
func (v *VectorStore) SearchByKeyword(ctx context.Context, userID, keyword string, score float64, limit int) ([]domain.SimilarChunk, error) {
	query := `SELECT ` + chunkColumns + `,
	                 $3::float8 AS similarity
	          FROM chunks c
	          WHERE c.user_id = $1
	            AND c.content ILIKE '%' || $2 || '%'
	          ORDER BY c.created_at DESC
	          LIMIT $4`

	rows, err := v.store.db.QueryContext(ctx, query, userID, keyword, score, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	return scanSimilarChunks(rows)
}

// RecentChunks returns the owner's newest chunks for degraded-mode context.
func (v *VectorStore) RecentChunks(ctx context.Context, userID string, limit int) ([]domain.Chunk, error) {
	query := `SELECT ` + chunkColumns + `
	          FROM chunks c
	          WHERE c.user_id = $1
	          ORDER BY c.created_at DESC
	          LIMIT $2`

	rows, err := v.store.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows, false)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c.Chunk)
	}
	return chunks, nil
}

// CountChunks reports how many chunks the owner has stored.
func (v *VectorStore) CountChunks(ctx context.Context, userID string) (int, error) {
	var count int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// DocumentEmbedding returns the stored whole-document embedding.
func (v *VectorStore) DocumentEmbedding(ctx context.Context, docID, userID string) ([]float32, error) {
	var raw sql.NullString
	err := v.store.db.QueryRowContext(ctx,
		`SELECT embedding::text FROM documents WHERE id = $1 AND user_id = $2`,
		docID, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("document embedding: %w", err)
	}
	if !raw.Valid {
		return nil, port.ErrDocumentNotFound
	}
	return parseVector(raw.String)
}

// NearestDocuments performs document-level cosine similarity search.
func (v *VectorStore) NearestDocuments(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]domain.SimilarDocument, error) {
	query := `SELECT ` + documentColumns2 + `,
	                 1 - (d.embedding <=> $1::vector) AS similarity
	          FROM documents d
	          WHERE d.user_id = $2
	            AND d.embedding IS NOT NULL
	            AND 1 - (d.embedding <=> $1::vector) > $3
	          ORDER BY d.embedding <=> $1::vector
	          LIMIT $4`

	rows, err := v.store.db.QueryContext(ctx, query, vectorToString(vector), userID, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest documents: %w", err)
	}
	defer rows.Close()

	var results []domain.SimilarDocument
	for rows.Next() {
		var sd domain.SimilarDocument
		dest := documentDest(&sd.Document)
		dest = append(dest, &sd.Similarity)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan similar document: %w", err)
		}
		results = append(results, sd)
	}
	return results, nil
}

const documentColumns2 = `d.id, d.user_id, d.filename, d.media_type, d.object_key, d.size_bytes, d.status, d.summary, d.tags, d.created_at`

func scanSimilarChunks(rows *sql.Rows) ([]domain.SimilarChunk, error) {
	var results []domain.SimilarChunk
	for rows.Next() {
		c, err := scanChunk(rows, true)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, nil
}

func scanChunk(rows *sql.Rows, withSimilarity bool) (domain.SimilarChunk, error) {
	var sc domain.SimilarChunk
	var metaJSON []byte

	dest := []any{&sc.ID, &sc.DocumentID, &sc.UserID, &sc.ChunkIndex, &sc.Content, &metaJSON, &sc.CreatedAt}
	if withSimilarity {
		dest = append(dest, &sc.Similarity)
	}
	if err := rows.Scan(dest...); err != nil {
		return sc, fmt.Errorf("scan chunk: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &sc.Metadata); err != nil {
		return sc, fmt.Errorf("decode chunk metadata: %w", err)
	}
	return sc, nil
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector is the inverse of vectorToString.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vector := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d: %w", i, err)
		}
		vector[i] = float32(f)
	}
	return vector, nil
}
