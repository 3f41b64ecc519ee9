package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/port"
)

// fakeEmbedder returns a constant vector, or a scripted error.
type fakeEmbedder struct {
	vector []float32
	source string
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	source := f.source
	if source == "" {
		source = domain.EmbeddingSourcePrimary
	}
	return f.vector, source, nil
}

// fakeChunkStore implements port.ChunkStore with scripted results.
type fakeChunkStore struct {
	mu sync.Mutex

	inserted []domain.Chunk

	vectorHits  []domain.SimilarChunk
	keywordHits []domain.SimilarChunk
	recent      []domain.Chunk
	count       int

	insertErr  error
	vectorErr  error
	keywordErr error
	recentErr  error
	countErr   error
}

func (f *fakeChunkStore) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeChunkStore) SearchByVector(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]domain.SimilarChunk, error) {
	return f.vectorHits, f.vectorErr
}

func (f *fakeChunkStore) SearchByKeyword(ctx context.Context, userID, keyword string, score float64, limit int) ([]domain.SimilarChunk, error) {
	return f.keywordHits, f.keywordErr
}

func (f *fakeChunkStore) RecentChunks(ctx context.Context, userID string, limit int) ([]domain.Chunk, error) {
	return f.recent, f.recentErr
}

func (f *fakeChunkStore) CountChunks(ctx context.Context, userID string) (int, error) {
	return f.count, f.countErr
}

func (f *fakeChunkStore) DocumentEmbedding(ctx context.Context, docID, userID string) ([]float32, error) {
	return nil, port.ErrDocumentNotFound
}

func (f *fakeChunkStore) NearestDocuments(ctx context.Context, userID string, vector []float32, threshold float64, limit int) ([]domain.SimilarDocument, error) {
	return nil, nil
}

// fakeDocStore records UpdateDocument calls.
type fakeDocStore struct {
	mu      sync.Mutex
	updates []docUpdate
}

type docUpdate struct {
	id      string
	status  string
	summary string
	tags    []string
	vector  []float32
}

func (f *fakeDocStore) CreateDocument(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	return d, nil
}

func (f *fakeDocStore) GetDocument(ctx context.Context, id, userID string) (*domain.Document, error) {
	return nil, port.ErrDocumentNotFound
}

func (f *fakeDocStore) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	return nil, nil
}

func (f *fakeDocStore) DeleteDocument(ctx context.Context, id, userID string) error {
	return nil
}

func (f *fakeDocStore) UpdateDocument(ctx context.Context, id, status, summary string, tags []string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, docUpdate{id: id, status: status, summary: summary, tags: tags, vector: embedding})
	return nil
}

func (f *fakeDocStore) lastUpdate() (docUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return docUpdate{}, false
	}
	return f.updates[len(f.updates)-1], true
}

// fakeTurnStore implements port.ConversationStore.
type fakeTurnStore struct {
	mu     sync.Mutex
	turns  []domain.ConversationTurn
	listed []domain.ConversationTurn
	err    error
}

func (f *fakeTurnStore) SaveTurn(ctx context.Context, t *domain.ConversationTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.turns = append(f.turns, *t)
	return nil
}

func (f *fakeTurnStore) ListTurns(ctx context.Context, userID string, limit int) ([]domain.ConversationTurn, error) {
	return f.listed, nil
}

func (f *fakeTurnStore) saved() []domain.ConversationTurn {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ConversationTurn, len(f.turns))
	copy(out, f.turns)
	return out
}

// fakeAI scripts Generate responses and errors per call.
type fakeAI struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (f *fakeAI) ModelName() string      { return "fake" }
func (f *fakeAI) EmbedModelName() string { return "fake-embed" }

func (f *fakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, &port.ProviderError{StatusCode: 404, Message: "not scripted"}
}

func (f *fakeAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, &port.ProviderError{StatusCode: 404, Message: "not scripted"}
}

func (f *fakeAI) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	if len(f.responses) > 0 {
		return f.responses[len(f.responses)-1], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i)
}

// fakeFetcher serves one object.
type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	return f.data, f.err
}

// fakeSearcher returns scripted hits per query.
type fakeSearcher struct {
	byQuery map[string][]domain.SimilarChunk
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, userID, query string, limit int, keyword string) []domain.SimilarChunk {
	f.queries = append(f.queries, query)
	return f.byQuery[query]
}
