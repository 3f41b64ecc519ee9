package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/doclens-ai/doclens/internal/middleware"
	"github.com/doclens-ai/doclens/internal/service"
)

// ChatHandler handles question answering over documents.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Ask)
}

// Ask answers a question with decomposition, retrieval, and synthesis.
func (h *ChatHandler) Ask(c fiber.Ctx) error {
	user := middleware.GetUserContext(c)

	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	result, err := h.chat.Ask(c.Context(), user.UserID, body.Question)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}
