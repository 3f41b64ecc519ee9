// Package embed wraps the external embedding provider with bounded retries
// and a deterministic local fallback, so ingestion always produces a vector.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/port"
	"github.com/doclens-ai/doclens/pkg/retry"
)

// FallbackDimension is the length of vectors produced by the local fallback
// embedding. The configured primary dimension must equal it for fallback
// vectors to be storable in the same index.
const FallbackDimension = 384

// Embedder converts text into fixed-dimension vectors, reporting which
// source (primary model or local fallback) produced each one.
type Embedder struct {
	ai        port.AIProvider
	dimension int
	policy    retry.Policy
}

// New creates an embedder over the given provider. dimension is the expected
// vector length for every stored embedding.
func New(ai port.AIProvider, dimension int) *Embedder {
	return &Embedder{
		ai:        ai,
		dimension: dimension,
		policy:    retry.Default(port.IsTransient),
	}
}

// Dimension returns the configured embedding dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed returns a vector for text plus a source label ("primary" or
// "fallback"). Transient provider failures are retried with backoff; on
// exhaustion or a permanent failure the deterministic local embedding is
// used instead, unless its dimension cannot match the configured index.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, string, error) {
	var vector []float32
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		v, err := e.ai.Embed(ctx, text)
		if err != nil {
			return err
		}
		if len(v) != e.dimension {
			return fmt.Errorf("%w: model returned %d, index expects %d",
				port.ErrDimensionMismatch, len(v), e.dimension)
		}
		vector = v
		return nil
	})
	if err == nil {
		return vector, domain.EmbeddingSourcePrimary, nil
	}

	if e.dimension != FallbackDimension {
		return nil, "", fmt.Errorf("embed %q: %w (fallback dimension %d unusable)",
			truncate(text, 40), err, FallbackDimension)
	}

	slog.Warn("embedding provider unavailable, using local fallback",
		"model", e.ai.EmbedModelName(), "error", err)
	return Fallback(text), domain.EmbeddingSourceFallback, nil
}

// Fallback computes the deterministic local embedding: a content-sensitive
// but non-semantic vector. For each rune c at position i, sin(c*0.1)*0.5 is
// accumulated into index (c+i) mod 384, and the result is L2-normalized.
// An all-zero vector (empty text) is returned unchanged.
func Fallback(text string) []float32 {
	acc := make([]float64, FallbackDimension)
	i := 0
	for _, c := range text {
		idx := (int(c) + i) % FallbackDimension
		acc[idx] += math.Sin(float64(c)*0.1) * 0.5
		i++
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vector := make([]float32, FallbackDimension)
	for j, v := range acc {
		if norm > 0 {
			vector[j] = float32(v / norm)
		}
	}
	return vector
}

// Mean returns the component-wise mean of the given vectors, skipping nil
// and all-zero entries. Returns nil if no valid vectors remain.
func Mean(vectors [][]float32) []float32 {
	var mean []float32
	count := 0
	for _, v := range vectors {
		if len(v) == 0 || isZero(v) {
			continue
		}
		if mean == nil {
			mean = make([]float32, len(v))
		}
		if len(v) != len(mean) {
			continue
		}
		for j, x := range v {
			mean[j] += x
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for j := range mean {
		mean[j] /= float32(count)
	}
	return mean
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
