package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/embed"
	"github.com/doclens-ai/doclens/internal/extract"
	"github.com/doclens-ai/doclens/internal/port"
)

// fallbackEmbedder runs the real deterministic fallback, as if the provider
// were permanently down.
type fallbackEmbedder struct{}

func (fallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, string, error) {
	return embed.Fallback(text), domain.EmbeddingSourceFallback, nil
}

func newTestIngest(fetcher port.FileFetcher, embedder textEmbedder, docs *fakeDocStore, chunks *fakeChunkStore) *IngestService {
	engine := port.NewEnrichmentEngine(
		stubStrategy{name: "summary", text: "A test document."},
		stubStrategy{name: "tags", tags: []string{"test"}},
	)
	return NewIngestService(fetcher, extract.NewDispatcher(), embedder, docs, chunks, engine, 1000, 200)
}

type stubStrategy struct {
	name string
	text string
	tags []string
}

func (s stubStrategy) Name() string        { return s.name }
func (s stubStrategy) Description() string { return s.name }
func (s stubStrategy) Enrich(ctx context.Context, req port.EnrichmentRequest) (*port.EnrichmentResult, error) {
	return &port.EnrichmentResult{Strategy: s.name, Text: s.text, Tags: s.tags}, nil
}

func TestIngestText_TwoParagraphsCompleted(t *testing.T) {
	docs := &fakeDocStore{}
	chunks := &fakeChunkStore{}
	svc := newTestIngest(&fakeFetcher{}, fallbackEmbedder{}, docs, chunks)

	text := strings.Repeat("a", 1200)
	doc := &domain.Document{ID: "doc1", UserID: "u1", Filename: "notes.txt", Status: domain.DocumentStatusProcessing}

	stats, err := svc.IngestText(context.Background(), doc, text)
	require.NoError(t, err)

	// 1200 chars, window 1000, step 800: two chunks.
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Fallback)
	assert.Equal(t, 0, stats.Primary)

	require.Len(t, chunks.inserted, 2)
	assert.Equal(t, 0, chunks.inserted[0].ChunkIndex)
	assert.Equal(t, 1, chunks.inserted[1].ChunkIndex)
	assert.Equal(t, "doc1", chunks.inserted[0].DocumentID)
	assert.Equal(t, domain.EmbeddingSourceFallback, chunks.inserted[0].Metadata.EmbeddingModel)
	assert.Equal(t, "notes.txt", chunks.inserted[0].Metadata.Filename)
	assert.Len(t, chunks.inserted[0].Vector, embed.FallbackDimension)

	update, ok := docs.lastUpdate()
	require.True(t, ok)
	assert.Equal(t, domain.DocumentStatusCompleted, update.status)
	assert.Equal(t, "A test document.", update.summary)
	assert.Equal(t, []string{"test"}, update.tags)
	assert.Len(t, update.vector, embed.FallbackDimension)
}

func TestIngestText_EmptyTextMarksError(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestIngest(&fakeFetcher{}, fallbackEmbedder{}, docs, &fakeChunkStore{})

	doc := &domain.Document{ID: "doc1", UserID: "u1"}
	_, err := svc.IngestText(context.Background(), doc, "")
	require.Error(t, err)

	update, ok := docs.lastUpdate()
	require.True(t, ok)
	assert.Equal(t, domain.DocumentStatusError, update.status)
}

func TestIngest_FetchFailureMarksError(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestIngest(&fakeFetcher{err: errors.New("object not found")}, fallbackEmbedder{}, docs, &fakeChunkStore{})

	doc := &domain.Document{ID: "doc1", UserID: "u1", ObjectKey: "missing"}
	_, err := svc.Ingest(context.Background(), doc)
	require.Error(t, err)

	update, ok := docs.lastUpdate()
	require.True(t, ok)
	assert.Equal(t, domain.DocumentStatusError, update.status)
	assert.Contains(t, update.summary, "fetch object")
}

func TestIngest_CorruptFileStillCompletesWithDiagnosticChunk(t *testing.T) {
	docs := &fakeDocStore{}
	chunks := &fakeChunkStore{}
	svc := newTestIngest(&fakeFetcher{data: []byte("not a real pdf")}, fallbackEmbedder{}, docs, chunks)

	doc := &domain.Document{ID: "doc1", UserID: "u1", Filename: "broken.pdf", MediaType: "application/pdf", ObjectKey: "k"}
	stats, err := svc.Ingest(context.Background(), doc)
	require.NoError(t, err)

	// Extraction is total: the corrupt file becomes one diagnostic chunk.
	assert.Equal(t, 1, stats.Chunks)
	require.Len(t, chunks.inserted, 1)
	assert.Equal(t, domain.ProcessingFailed, chunks.inserted[0].Metadata.ProcessingStatus)

	update, ok := docs.lastUpdate()
	require.True(t, ok)
	assert.Equal(t, domain.DocumentStatusCompleted, update.status)
}

func TestIngest_InsertFailureMarksError(t *testing.T) {
	docs := &fakeDocStore{}
	chunks := &fakeChunkStore{insertErr: errors.New("disk full")}
	svc := newTestIngest(&fakeFetcher{data: []byte("plain text body")}, fallbackEmbedder{}, docs, chunks)

	doc := &domain.Document{ID: "doc1", UserID: "u1", Filename: "a.txt", MediaType: "text/plain", ObjectKey: "k"}
	_, err := svc.Ingest(context.Background(), doc)
	require.Error(t, err)

	update, ok := docs.lastUpdate()
	require.True(t, ok)
	assert.Equal(t, domain.DocumentStatusError, update.status)
	assert.Contains(t, update.summary, "insert chunks")
}

func TestIngest_PrimaryEmbeddingsCounted(t *testing.T) {
	docs := &fakeDocStore{}
	chunks := &fakeChunkStore{}
	embedder := &fakeEmbedder{vector: make([]float32, 384)}
	svc := newTestIngest(&fakeFetcher{data: []byte("hello world")}, embedder, docs, chunks)

	doc := &domain.Document{ID: "doc1", UserID: "u1", Filename: "a.txt", MediaType: "text/plain", ObjectKey: "k"}
	stats, err := svc.Ingest(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, stats.Chunks, stats.Primary)
	assert.Equal(t, 0, stats.Fallback)
}
