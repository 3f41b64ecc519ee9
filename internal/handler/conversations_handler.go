package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/doclens-ai/doclens/internal/adapter/store"
	"github.com/doclens-ai/doclens/internal/middleware"
)

// ConversationsHandler handles conversation history endpoints.
type ConversationsHandler struct {
	store *store.PostgresStore
}

// NewConversationsHandler creates a new conversations handler.
func NewConversationsHandler(store *store.PostgresStore) *ConversationsHandler {
	return &ConversationsHandler{store: store}
}

// Register sets up conversation routes.
func (h *ConversationsHandler) Register(router fiber.Router) {
	router.Get("/conversations", h.List)
}

// List returns the user's conversation turns, newest first.
func (h *ConversationsHandler) List(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	turns, err := h.store.ListTurns(c.Context(), user.UserID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"conversations": turns,
		"count":         len(turns),
	})
}
