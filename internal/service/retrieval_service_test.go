package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens-ai/doclens/internal/domain"
)

func hit(id, docID, content string, score float64) domain.SimilarChunk {
	return domain.SimilarChunk{
		Chunk:      domain.Chunk{ID: id, DocumentID: docID, Content: content},
		Similarity: score,
	}
}

func newTestRetrieval(store *fakeChunkStore) *RetrievalService {
	return NewRetrievalService(
		&fakeEmbedder{vector: []float32{1, 0, 0}},
		store,
		RetrievalOptions{KeywordScore: 0.7, RecentChunkScore: 0.5, DefaultLimit: 10},
	)
}

func TestSearch_MergesLegsMaxScoreWins(t *testing.T) {
	store := &fakeChunkStore{
		vectorHits: []domain.SimilarChunk{
			hit("c1", "d1", "alpha", 0.9),
			hit("c2", "d1", "beta", 0.3),
		},
		keywordHits: []domain.SimilarChunk{
			hit("c2", "d1", "beta", 0.7), // same chunk, higher keyword score
			hit("c3", "d2", "gamma", 0.7),
		},
	}
	svc := newTestRetrieval(store)

	results := svc.Search(context.Background(), "u1", "question", 10, "")

	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, 0.9, results[0].Similarity)
	// c2 keeps the higher of its two scores.
	assert.Equal(t, "c2", results[1].ID)
	assert.Equal(t, 0.7, results[1].Similarity)
	assert.Equal(t, "c3", results[2].ID)
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	store := &fakeChunkStore{
		vectorHits: []domain.SimilarChunk{
			hit("c1", "d1", "a", 0.9),
			hit("c2", "d1", "b", 0.8),
			hit("c3", "d1", "c", 0.7),
		},
	}
	svc := newTestRetrieval(store)

	results := svc.Search(context.Background(), "u1", "q", 2, "")

	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, "c2", results[1].ID)
}

func TestSearch_DegradesToRecentOnStoreError(t *testing.T) {
	store := &fakeChunkStore{
		vectorErr:  errors.New("connection refused"),
		keywordErr: errors.New("connection refused"),
		recent: []domain.Chunk{
			{ID: "r1", DocumentID: "d1", Content: "recent one"},
			{ID: "r2", DocumentID: "d1", Content: "recent two"},
		},
	}
	svc := newTestRetrieval(store)

	results := svc.Search(context.Background(), "u1", "q", 10, "")

	require.Len(t, results, 2)
	assert.Equal(t, "r1", results[0].ID)
	assert.Equal(t, 0.5, results[0].Similarity)
}

func TestSearch_DegradesWhenOwnerHasChunksButNoMatches(t *testing.T) {
	store := &fakeChunkStore{
		count:  42,
		recent: []domain.Chunk{{ID: "r1", Content: "recent"}},
	}
	svc := newTestRetrieval(store)

	results := svc.Search(context.Background(), "u1", "q", 10, "")

	require.Len(t, results, 1)
	assert.Equal(t, 0.5, results[0].Similarity)
}

func TestSearch_EmptyIndexReturnsNothing(t *testing.T) {
	svc := newTestRetrieval(&fakeChunkStore{count: 0})

	results := svc.Search(context.Background(), "u1", "q", 10, "")

	assert.Empty(t, results)
}

func TestSearch_QueryEmbedFailureStillUsesKeywordLeg(t *testing.T) {
	store := &fakeChunkStore{
		keywordHits: []domain.SimilarChunk{hit("c1", "d1", "match", 0.7)},
	}
	svc := NewRetrievalService(
		&fakeEmbedder{err: errors.New("provider down")},
		store,
		RetrievalOptions{KeywordScore: 0.7, RecentChunkScore: 0.5, DefaultLimit: 10},
	)

	results := svc.Search(context.Background(), "u1", "q", 10, "")

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
}
