package port

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AIProvider abstracts the AI/LLM backend for embeddings and text generation.
// Implementations can target Ollama, OpenAI, or any compatible API.
type AIProvider interface {
	// ModelName returns the identifier of the generative model being used.
	ModelName() string

	// EmbedModelName returns the identifier of the embedding model being used.
	EmbedModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Generate sends a prompt and returns the model's text response.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProviderError is an error from an external AI provider carrying the
// upstream status code, which selects retry vs fallback behavior.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%d): %s", e.StatusCode, e.Message)
}

// Transient reports whether the error is worth retrying.
func (e *ProviderError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// IsTransient reports whether err is a retryable provider error.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient()
}

// ProviderStatus extracts the upstream status code from err, or 0 if err is
// not a provider error.
func ProviderStatus(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}
