package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// --- Users ---

// UpsertUser inserts or updates a user by provider + provider_id.
func (s *PostgresStore) UpsertUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, role, access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			access_token = EXCLUDED.access_token,
			updated_at = NOW()
		RETURNING id, email, name, avatar_url, provider, provider_id, role, created_at, updated_at`

	row := s.db.QueryRowContext(ctx, query,
		u.Email, u.Name, u.AvatarURL, u.Provider, u.ProviderID, "user", u.AccessToken,
	)

	var user domain.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, name, avatar_url, provider, provider_id, role, access_token, created_at, updated_at
	          FROM users WHERE id = $1`

	var user domain.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.Role, &user.AccessToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// --- Documents ---

const documentColumns = `id, user_id, filename, media_type, object_key, size_bytes, status, summary, tags, created_at`

// CreateDocument inserts a new document record in processing state.
func (s *PostgresStore) CreateDocument(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	query := `INSERT INTO documents (user_id, filename, media_type, object_key, size_bytes, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING ` + documentColumns

	var doc domain.Document
	err := s.db.QueryRowContext(ctx, query,
		d.UserID, d.Filename, d.MediaType, d.ObjectKey, d.SizeBytes, d.Status,
	).Scan(documentDest(&doc)...)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &doc, nil
}

// GetDocument returns a document scoped to its owner. Another user's
// document is indistinguishable from a missing one.
func (s *PostgresStore) GetDocument(ctx context.Context, id, userID string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND user_id = $2`

	var doc domain.Document
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(documentDest(&doc)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns all documents for a user, newest first.
func (s *PostgresStore) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(documentDest(&d)...); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks, scoped to the owner.
func (s *PostgresStore) DeleteDocument(ctx context.Context, id, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE document_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrDocumentNotFound
	}

	return tx.Commit()
}

// UpdateDocument applies the single post-ingestion mutation: terminal status
// plus optional summary, tags, and whole-document embedding.
func (s *PostgresStore) UpdateDocument(ctx context.Context, id, status, summary string, tags []string, embedding []float32) error {
	query := `UPDATE documents
	          SET status = $1,
	              summary = COALESCE(NULLIF($2, ''), summary),
	              tags = COALESCE($3, tags),
	              embedding = COALESCE($4::vector, embedding)
	          WHERE id = $5`

	var tagsArg any
	if tags != nil {
		tagsArg = pq.Array(tags)
	}
	var embArg any
	if embedding != nil {
		embArg = vectorToString(embedding)
	}

	if _, err := s.db.ExecContext(ctx, query, status, summary, tagsArg, embArg, id); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func documentDest(d *domain.Document) []any {
	return []any{
		&d.ID, &d.UserID, &d.Filename, &d.MediaType, &d.ObjectKey,
		&d.SizeBytes, &d.Status, &d.Summary, pq.Array(&d.Tags), &d.CreatedAt,
	}
}

// --- Conversations ---

// SaveTurn persists one question/answer pair with its citations.
func (s *PostgresStore) SaveTurn(ctx context.Context, t *domain.ConversationTurn) error {
	sources, err := json.Marshal(t.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	subQueries, err := json.Marshal(t.SubQueries)
	if err != nil {
		return fmt.Errorf("marshal sub queries: %w", err)
	}

	query := `INSERT INTO conversation_turns (user_id, question, answer, sources, sub_queries)
	          VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)`
	if _, err := s.db.ExecContext(ctx, query, t.UserID, t.Question, t.Answer, sources, subQueries); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// ListTurns returns a user's conversation history, newest first.
func (s *PostgresStore) ListTurns(ctx context.Context, userID string, limit int) ([]domain.ConversationTurn, error) {
	query := `SELECT id, user_id, question, answer, sources, sub_queries, created_at
	          FROM conversation_turns WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var sources, subQueries []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.Question, &t.Answer, &sources, &subQueries, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if err := json.Unmarshal(sources, &t.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
		if err := json.Unmarshal(subQueries, &t.SubQueries); err != nil {
			return nil, fmt.Errorf("decode sub queries: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// --- Audit Logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (user_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`
	_, err := s.db.ExecContext(context.Background(), query,
		userID, action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs with optional filters.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, user_id, action, resource, resource_id, details, ip, user_agent, created_at
	          FROM audit_logs`
	args := []any{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}
