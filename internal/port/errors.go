package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrUserNotFound       = errors.New("user not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrEnricherNotFound   = errors.New("enrichment strategy not found")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrEmptyEmbedResponse = errors.New("empty embedding response")
)
