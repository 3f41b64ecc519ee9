package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/doclens-ai/doclens/internal/adapter/store"
	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/middleware"
	"github.com/doclens-ai/doclens/internal/port"
	"github.com/doclens-ai/doclens/internal/service"
)

// ingestTimeout bounds one background ingestion run.
const ingestTimeout = 10 * time.Minute

// DocumentHandler handles document CRUD and ingestion endpoints.
type DocumentHandler struct {
	store     *store.PostgresStore
	vector    *store.VectorStore
	ingest    *service.IngestService
	threshold float64
	limit     int
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(s *store.PostgresStore, v *store.VectorStore, ingest *service.IngestService, threshold float64, limit int) *DocumentHandler {
	return &DocumentHandler{store: s, vector: v, ingest: ingest, threshold: threshold, limit: limit}
}

// Register sets up document routes.
func (h *DocumentHandler) Register(router fiber.Router) {
	docs := router.Group("/documents")
	docs.Post("/", h.Upload)
	docs.Post("/text", h.UploadText)
	docs.Get("/", h.List)
	docs.Get("/:id", h.Get)
	docs.Delete("/:id", h.Delete)
	docs.Get("/:id/related", h.Related)
}

// Upload registers an uploaded object and starts async ingestion.
func (h *DocumentHandler) Upload(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	var req struct {
		ObjectKey string `json:"object_key"`
		Filename  string `json:"filename"`
		MediaType string `json:"media_type"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ObjectKey == "" || req.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "object_key and filename are required"})
	}

	doc := &domain.Document{
		UserID:    user.UserID,
		Filename:  req.Filename,
		MediaType: req.MediaType,
		ObjectKey: req.ObjectKey,
		SizeBytes: req.SizeBytes,
		Status:    domain.DocumentStatusProcessing,
	}

	doc, err := h.store.CreateDocument(c.Context(), doc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// Ingestion runs detached from the request; the document row carries
	// progress via its status field.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()
		if _, err := h.ingest.Ingest(ctx, doc); err != nil {
			slog.Error("background ingest failed", "document_id", doc.ID, "error", err)
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(doc)
}

// UploadText ingests raw text directly, without object storage.
func (h *DocumentHandler) UploadText(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	var req struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content is required"})
	}
	if req.Filename == "" {
		req.Filename = "untitled.txt"
	}

	doc := &domain.Document{
		UserID:    user.UserID,
		Filename:  req.Filename,
		MediaType: "text/plain",
		SizeBytes: int64(len(req.Content)),
		Status:    domain.DocumentStatusProcessing,
	}

	doc, err := h.store.CreateDocument(c.Context(), doc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	content := req.Content
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()
		if _, err := h.ingest.IngestText(ctx, doc, content); err != nil {
			slog.Error("background text ingest failed", "document_id", doc.ID, "error", err)
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(doc)
}

// List returns all documents owned by the user.
func (h *DocumentHandler) List(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	docs, err := h.store.ListDocuments(c.Context(), user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"documents": docs,
		"count":     len(docs),
	})
}

// Get returns a single document.
func (h *DocumentHandler) Get(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	doc, err := h.store.GetDocument(c.Context(), c.Params("id"), user.UserID)
	if err != nil {
		if errors.Is(err, port.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "document not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(doc)
}

// Delete removes a document and all its chunks.
func (h *DocumentHandler) Delete(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	if err := h.store.DeleteDocument(c.Context(), c.Params("id"), user.UserID); err != nil {
		if errors.Is(err, port.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "document not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"deleted": true})
}

// Related returns documents similar to the given one, by whole-document
// embedding.
func (h *DocumentHandler) Related(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)
	docID := c.Params("id")

	embedding, err := h.vector.DocumentEmbedding(c.Context(), docID, user.UserID)
	if err != nil {
		if errors.Is(err, port.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "document not found or not yet processed"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	related, err := h.vector.NearestDocuments(c.Context(), user.UserID, embedding, h.threshold, h.limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// The document is its own nearest neighbor; drop it.
	filtered := related[:0]
	for _, d := range related {
		if d.ID != docID {
			filtered = append(filtered, d)
		}
	}

	return c.JSON(fiber.Map{
		"related": filtered,
		"count":   len(filtered),
	})
}
