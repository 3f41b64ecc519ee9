package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/doclens-ai/doclens/internal/middleware"
	"github.com/doclens-ai/doclens/internal/service"
)

// SearchHandler handles hybrid search endpoints.
type SearchHandler struct {
	retrieval *service.RetrievalService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(retrieval *service.RetrievalService) *SearchHandler {
	return &SearchHandler{retrieval: retrieval}
}

// Register sets up search routes.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Post("/search", h.Search)
}

// Search runs hybrid retrieval over the user's chunks.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	var body struct {
		Query   string `json:"query"`
		Keyword string `json:"keyword"`
		Limit   int    `json:"limit"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}

	results := h.retrieval.Search(c.Context(), user.UserID, body.Query, body.Limit, body.Keyword)

	return c.JSON(fiber.Map{
		"results": results,
		"count":   len(results),
	})
}
