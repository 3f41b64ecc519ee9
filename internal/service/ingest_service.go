package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/doclens-ai/doclens/internal/chunker"
	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/embed"
	"github.com/doclens-ai/doclens/internal/extract"
	"github.com/doclens-ai/doclens/internal/port"
)

// IngestStats summarizes one ingestion run: how many chunks were stored and
// which embedding source produced each vector.
type IngestStats struct {
	Chunks   int `json:"chunks"`
	Primary  int `json:"primary"`
	Fallback int `json:"fallback"`
}

// IngestService runs the document ingestion pipeline: fetch, extract, embed,
// persist, enrich. Documents enter in status "processing" and leave it as
// "completed" or "error".
type IngestService struct {
	fetcher      port.FileFetcher
	extractor    *extract.Dispatcher
	embedder     textEmbedder
	docs         port.DocumentStore
	chunks       port.ChunkStore
	enricher     *port.EnrichmentEngine
	chunkMax     int
	chunkOverlap int
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	fetcher port.FileFetcher,
	extractor *extract.Dispatcher,
	embedder textEmbedder,
	docs port.DocumentStore,
	chunks port.ChunkStore,
	enricher *port.EnrichmentEngine,
	chunkMax, chunkOverlap int,
) *IngestService {
	if chunkMax <= 0 {
		chunkMax = chunker.DefaultMaxLength
	}
	if chunkOverlap < 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	return &IngestService{
		fetcher:      fetcher,
		extractor:    extractor,
		embedder:     embedder,
		docs:         docs,
		chunks:       chunks,
		enricher:     enricher,
		chunkMax:     chunkMax,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest processes an uploaded object end to end. A fetch failure is a hard
// failure for the document; extraction failures are contained per file and
// still produce a diagnostic chunk.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.Document) (*IngestStats, error) {
	slog.Info("ingest start", "document_id", doc.ID, "filename", doc.Filename, "media_type", doc.MediaType)

	// 1. Fetch the raw bytes from object storage.
	data, err := s.fetcher.Fetch(ctx, doc.ObjectKey)
	if err != nil {
		return nil, s.markError(ctx, doc, fmt.Errorf("fetch object %s: %w", doc.ObjectKey, err))
	}

	// 2. Extract format-aware chunks. Extraction is total: it never errors.
	raw := s.extractor.Extract(ctx, extract.File{
		Name:      doc.Filename,
		MediaType: doc.MediaType,
		Data:      data,
	})

	return s.index(ctx, doc, raw)
}

// IngestText processes raw text submitted directly, bypassing object storage
// and extraction in favor of the sliding-window chunker.
func (s *IngestService) IngestText(ctx context.Context, doc *domain.Document, text string) (*IngestStats, error) {
	slog.Info("ingest text", "document_id", doc.ID, "chars", len(text))

	raw := chunker.Split(text, s.chunkMax, s.chunkOverlap)
	if len(raw) == 0 {
		return nil, s.markError(ctx, doc, fmt.Errorf("no content to ingest"))
	}
	return s.index(ctx, doc, raw)
}

// index embeds raw chunks in order, persists them, and finishes the document
// with its mean embedding, summary, and tags.
func (s *IngestService) index(ctx context.Context, doc *domain.Document, raw []domain.RawChunk) (*IngestStats, error) {
	stats := &IngestStats{Chunks: len(raw)}

	// 1. Embed each chunk in chunk-index order. The embedder falls back to
	// the local deterministic vector on provider failure, so a per-chunk
	// failure degrades the vector, not the pipeline.
	chunks := make([]domain.Chunk, len(raw))
	vectors := make([][]float32, len(raw))
	now := time.Now().UTC()
	for i, rc := range raw {
		vector, source, err := s.embedder.Embed(ctx, rc.Content)
		if err != nil {
			return nil, s.markError(ctx, doc, fmt.Errorf("embed chunk %d: %w", i, err))
		}
		switch source {
		case domain.EmbeddingSourceFallback:
			stats.Fallback++
		default:
			stats.Primary++
		}

		meta := rc.Metadata
		meta.Filename = doc.Filename
		meta.EmbeddingModel = source

		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			UserID:     doc.UserID,
			ChunkIndex: i,
			Content:    rc.Content,
			Metadata:   meta,
			Vector:     vector,
			CreatedAt:  now,
		}
		vectors[i] = vector
	}

	// 2. Persist the chunk set.
	if err := s.chunks.InsertChunks(ctx, chunks); err != nil {
		return nil, s.markError(ctx, doc, fmt.Errorf("insert chunks: %w", err))
	}

	// 3. Document-level embedding: mean over the valid chunk vectors.
	docVector := embed.Mean(vectors)

	// 4. Summary and tags are read-only over the chunk set, so they run
	// concurrently. Enrichment failures leave the field blank.
	summary, tags := s.enrichDocument(ctx, doc, raw)

	// 5. Finish the document.
	if err := s.docs.UpdateDocument(ctx, doc.ID, domain.DocumentStatusCompleted, summary, tags, docVector); err != nil {
		return nil, s.markError(ctx, doc, fmt.Errorf("update document: %w", err))
	}

	slog.Info("ingest done", "document_id", doc.ID,
		"chunks", stats.Chunks, "primary", stats.Primary, "fallback", stats.Fallback)
	return stats, nil
}

func (s *IngestService) enrichDocument(ctx context.Context, doc *domain.Document, raw []domain.RawChunk) (string, []string) {
	if s.enricher == nil {
		return "", nil
	}

	req := port.EnrichmentRequest{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Chunks:     make([]string, len(raw)),
	}
	for i, rc := range raw {
		req.Chunks[i] = rc.Content
	}

	var (
		wg      sync.WaitGroup
		summary string
		tags    []string
	)
	for _, name := range []string{"summary", "tags"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			res, err := s.enricher.Run(ctx, name, req)
			if err != nil {
				slog.Warn("enrichment failed", "strategy", name, "document_id", doc.ID, "error", err)
				return
			}
			switch name {
			case "summary":
				summary = res.Text
			case "tags":
				tags = res.Tags
			}
		}(name)
	}
	wg.Wait()
	return summary, tags
}

// markError moves the document to status "error" with the diagnostic in the
// summary field, and returns the original cause.
func (s *IngestService) markError(ctx context.Context, doc *domain.Document, cause error) error {
	slog.Error("ingest failed", "document_id", doc.ID, "error", cause)
	if err := s.docs.UpdateDocument(ctx, doc.ID, domain.DocumentStatusError, cause.Error(), nil, nil); err != nil {
		slog.Error("mark document error failed", "document_id", doc.ID, "error", err)
	}
	return cause
}
