package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/doclens-ai/doclens/internal/adapter/enrich"
	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/port"
	"github.com/doclens-ai/doclens/pkg/retry"
)

// searcher is satisfied by *RetrievalService.
type searcher interface {
	Search(ctx context.Context, userID, query string, limit int, keyword string) []domain.SimilarChunk
}

const (
	// historyTurns is how many prior turns feed the synthesis prompt.
	historyTurns = 6

	// sourceContentLimit caps how much chunk text a stored citation keeps.
	sourceContentLimit = 200
)

// Canned answers returned when the model is unreachable, selected by the
// upstream status class.
const (
	apologyOverloaded = "I'm sorry, the language model is currently overloaded. Please try again in a few moments."
	apologyRateLimit  = "I'm sorry, requests are being rate limited right now. Please wait a moment before asking again."
	apologyBadRequest = "I'm sorry, I couldn't process that question. Try rephrasing it."
	apologyGeneric    = "I'm sorry, I couldn't generate an answer right now. Please try again."
)

// ChatResult is a synthesized answer with its citations and the sub-queries
// retrieval actually ran.
type ChatResult struct {
	Answer     string             `json:"answer"`
	Sources    []domain.SourceRef `json:"sources"`
	SubQueries []string           `json:"sub_queries"`
}

// ChatService answers questions over a user's documents: it decomposes the
// question into sub-queries, retrieves context for each, and synthesizes a
// cited answer.
type ChatService struct {
	ai        port.AIProvider
	retrieval searcher
	turns     port.ConversationStore
	policy    retry.Policy
	limit     int
}

// NewChatService creates a new chat service. limit caps retrieval per
// sub-query.
func NewChatService(ai port.AIProvider, retrieval searcher, turns port.ConversationStore, limit int) *ChatService {
	if limit <= 0 {
		limit = 10
	}
	return &ChatService{
		ai:        ai,
		retrieval: retrieval,
		turns:     turns,
		policy:    retry.Default(port.IsTransient),
		limit:     limit,
	}
}

// Ask runs the full pipeline for one question. It never fails because the
// model did: unrecoverable generation errors yield a canned apology instead.
func (s *ChatService) Ask(ctx context.Context, userID, question string) (*ChatResult, error) {
	slog.Info("chat question", "user_id", userID, "len", len(question))

	// 1. Decompose into sub-queries and retrieve per sub-query.
	subQueries := s.Decompose(ctx, question)
	chunks := s.retrieve(ctx, userID, subQueries)

	// 2. Load recent history, oldest first.
	history, err := s.turns.ListTurns(ctx, userID, historyTurns)
	if err != nil {
		slog.Warn("load conversation history failed", "error", err)
		history = nil
	}
	reverseTurns(history)

	// 3. Synthesize, retrying transient provider failures.
	answer := s.synthesize(ctx, question, chunks, history)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &ChatResult{
		Answer:     answer,
		Sources:    sourceRefs(chunks),
		SubQueries: subQueries,
	}

	// 4. Persist the turn best-effort; a storage failure never fails the
	// response the user already has.
	turn := &domain.ConversationTurn{
		UserID:     userID,
		Question:   question,
		Answer:     answer,
		Sources:    result.Sources,
		SubQueries: subQueries,
		CreatedAt:  time.Now().UTC(),
	}
	go func() {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.turns.SaveTurn(saveCtx, turn); err != nil {
			slog.Error("save conversation turn failed", "user_id", userID, "error", err)
		}
	}()

	return result, nil
}

// Decompose asks the model to split a question into atomic sub-queries.
// The result always has at least one entry: any model failure, parse
// failure, or empty list falls back to the original question unchanged.
func (s *ChatService) Decompose(ctx context.Context, query string) []string {
	systemPrompt := `You split user questions into atomic search queries. Respond ONLY with a JSON array of strings. If the question is already atomic, return it as a single-element array. No prose, no markdown fences.`

	response, err := s.ai.Generate(ctx, systemPrompt, query)
	if err != nil {
		slog.Warn("query decomposition failed", "error", err)
		return []string{query}
	}

	var subQueries []string
	if err := json.Unmarshal([]byte(enrich.StripFences(response)), &subQueries); err != nil {
		return []string{query}
	}

	cleaned := subQueries[:0]
	for _, q := range subQueries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return []string{query}
	}
	return cleaned
}

// retrieve runs retrieval per sub-query and concatenates the results,
// deduplicating by (document ID, content) with the first occurrence winning.
func (s *ChatService) retrieve(ctx context.Context, userID string, subQueries []string) []domain.SimilarChunk {
	type key struct{ docID, content string }
	seen := make(map[key]struct{})

	var chunks []domain.SimilarChunk
	for _, q := range subQueries {
		for _, hit := range s.retrieval.Search(ctx, userID, q, s.limit, "") {
			k := key{hit.DocumentID, hit.Content}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			chunks = append(chunks, hit)
		}
	}
	return chunks
}

func (s *ChatService) synthesize(ctx context.Context, question string, chunks []domain.SimilarChunk, history []domain.ConversationTurn) string {
	systemPrompt := `You are DocLens AI, an assistant that answers questions about the user's documents. Answer using ONLY the provided context. Cite the source document when you use it. If the context does not contain the answer, say so plainly instead of guessing.`

	var answer string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		response, err := s.ai.Generate(ctx, systemPrompt, buildPrompt(question, chunks, history))
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(response)
		return nil
	})
	if err != nil {
		slog.Error("answer synthesis failed", "error", err)
		return apologyFor(err)
	}
	return answer
}

// buildPrompt assembles context chunks in retrieval order, history oldest
// first, then the question.
func buildPrompt(question string, chunks []domain.SimilarChunk, history []domain.ConversationTurn) string {
	var sb strings.Builder

	if len(chunks) > 0 {
		sb.WriteString("Context:\n\n")
		for _, c := range chunks {
			fmt.Fprintf(&sb, "[Source: %s, similarity %.2f]\n%s\n\n",
				c.Metadata.Filename, c.Similarity, c.Content)
		}
	} else {
		sb.WriteString("Context: (no relevant documents found)\n\n")
	}

	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", t.Question, t.Answer)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}

func apologyFor(err error) string {
	switch port.ProviderStatus(err) {
	case http.StatusServiceUnavailable:
		return apologyOverloaded
	case http.StatusTooManyRequests:
		return apologyRateLimit
	case http.StatusBadRequest:
		return apologyBadRequest
	default:
		return apologyGeneric
	}
}

func sourceRefs(chunks []domain.SimilarChunk) []domain.SourceRef {
	refs := make([]domain.SourceRef, len(chunks))
	for i, c := range chunks {
		content := c.Content
		if len(content) > sourceContentLimit {
			content = content[:sourceContentLimit] + "..."
		}
		refs[i] = domain.SourceRef{
			DocumentID:     c.DocumentID,
			Filename:       c.Metadata.Filename,
			Content:        content,
			Similarity:     c.Similarity,
			EmbeddingModel: c.Metadata.EmbeddingModel,
		}
	}
	return refs
}

func reverseTurns(turns []domain.ConversationTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
