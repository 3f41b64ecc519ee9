package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/port"
)

// textEmbedder turns text into a vector plus a source label. Satisfied by
// *embed.Embedder.
type textEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, string, error)
}

// RetrievalOptions holds the scoring knobs for hybrid search.
type RetrievalOptions struct {
	SimilarityThreshold float64
	KeywordScore        float64
	RecentChunkScore    float64
	DefaultLimit        int
}

// RetrievalService performs hybrid (vector + keyword) search over a user's
// chunks. Retrieval never fails on quality grounds: when the store errors or
// returns nothing for an owner who has content, it degrades to the owner's
// most recent chunks at a nominal score.
type RetrievalService struct {
	embedder textEmbedder
	chunks   port.ChunkStore
	opts     RetrievalOptions
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(embedder textEmbedder, chunks port.ChunkStore, opts RetrievalOptions) *RetrievalService {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	return &RetrievalService{embedder: embedder, chunks: chunks, opts: opts}
}

// Search runs both legs of hybrid search and merges them: union by chunk ID
// keeping the higher score, sorted by score descending, truncated to limit.
// keyword defaults to the query itself when empty.
func (s *RetrievalService) Search(ctx context.Context, userID, query string, limit int, keyword string) []domain.SimilarChunk {
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if keyword == "" {
		keyword = query
	}

	degraded := false

	// 1. Vector leg: embed the query and search by cosine similarity.
	var vectorHits []domain.SimilarChunk
	vector, _, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed", "error", err)
		degraded = true
	} else {
		vectorHits, err = s.chunks.SearchByVector(ctx, userID, vector, s.opts.SimilarityThreshold, limit)
		if err != nil {
			slog.Warn("vector search failed", "error", err)
			degraded = true
		}
	}

	// 2. Keyword leg: substring matches at a fixed nominal score.
	keywordHits, err := s.chunks.SearchByKeyword(ctx, userID, keyword, s.opts.KeywordScore, limit)
	if err != nil {
		slog.Warn("keyword search failed", "error", err)
		degraded = true
	}

	// 3. Merge, keeping the higher score per chunk.
	merged := mergeHits(vectorHits, keywordHits)

	// 4. Degrade to recent chunks when search broke, or when it found
	// nothing for a user who demonstrably has content.
	if len(merged) == 0 {
		if !degraded {
			count, err := s.chunks.CountChunks(ctx, userID)
			if err != nil || count > 0 {
				degraded = true
			}
		}
		if degraded {
			return s.recentChunks(ctx, userID, limit)
		}
		return nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func mergeHits(legs ...[]domain.SimilarChunk) []domain.SimilarChunk {
	byID := make(map[string]int)
	var merged []domain.SimilarChunk
	for _, leg := range legs {
		for _, hit := range leg {
			if i, ok := byID[hit.ID]; ok {
				if hit.Similarity > merged[i].Similarity {
					merged[i].Similarity = hit.Similarity
				}
				continue
			}
			byID[hit.ID] = len(merged)
			merged = append(merged, hit)
		}
	}
	return merged
}

func (s *RetrievalService) recentChunks(ctx context.Context, userID string, limit int) []domain.SimilarChunk {
	recent, err := s.chunks.RecentChunks(ctx, userID, limit)
	if err != nil {
		slog.Error("recent chunks fallback failed", "error", err)
		return nil
	}
	hits := make([]domain.SimilarChunk, len(recent))
	for i, c := range recent {
		hits[i] = domain.SimilarChunk{Chunk: c, Similarity: s.opts.RecentChunkScore}
	}
	return hits
}
