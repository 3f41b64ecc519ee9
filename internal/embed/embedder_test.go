package embed

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens-ai/doclens/internal/domain"
	"github.com/doclens-ai/doclens/internal/port"
)

// fakeProvider returns scripted responses per call.
type fakeProvider struct {
	vectors [][]float32
	errs    []error
	calls   int
}

func (f *fakeProvider) ModelName() string      { return "fake-chat" }
func (f *fakeProvider) EmbedModelName() string { return "fake-embed" }

func (f *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.vectors) {
		return f.vectors[i], nil
	}
	return f.vectors[len(f.vectors)-1], nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeProvider) Generate(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func newFastEmbedder(ai port.AIProvider, dim int) *Embedder {
	e := New(ai, dim)
	e.policy.BaseDelay = 0
	e.policy.MaxJitter = 0
	return e
}

func unitVector(dim int) []float32 {
	v := make([]float32, dim)
	v[0] = 1
	return v
}

func TestEmbed_PrimarySuccess(t *testing.T) {
	provider := &fakeProvider{vectors: [][]float32{unitVector(FallbackDimension)}}
	e := newFastEmbedder(provider, FallbackDimension)

	vec, source, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingSourcePrimary, source)
	assert.Len(t, vec, FallbackDimension)
	assert.Equal(t, 1, provider.calls)
}

func TestEmbed_RetriesTransientThenSucceeds(t *testing.T) {
	transient := &port.ProviderError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
	provider := &fakeProvider{
		errs:    []error{transient, transient, nil},
		vectors: [][]float32{nil, nil, unitVector(FallbackDimension)},
	}
	e := newFastEmbedder(provider, FallbackDimension)

	_, source, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingSourcePrimary, source)
	assert.Equal(t, 3, provider.calls)
}

func TestEmbed_FallsBackAfterExhaustion(t *testing.T) {
	transient := &port.ProviderError{StatusCode: http.StatusServiceUnavailable, Message: "down"}
	provider := &fakeProvider{errs: []error{transient, transient, transient}}
	e := newFastEmbedder(provider, FallbackDimension)

	vec, source, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingSourceFallback, source)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, Fallback("hello world"), vec)
}

func TestEmbed_PermanentErrorSkipsRetries(t *testing.T) {
	permanent := &port.ProviderError{StatusCode: http.StatusUnauthorized, Message: "bad key"}
	provider := &fakeProvider{errs: []error{permanent, permanent, permanent}}
	e := newFastEmbedder(provider, FallbackDimension)

	_, source, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingSourceFallback, source)
	assert.Equal(t, 1, provider.calls)
}

func TestEmbed_DimensionMismatchRejected(t *testing.T) {
	provider := &fakeProvider{vectors: [][]float32{unitVector(1536)}}
	e := newFastEmbedder(provider, FallbackDimension)

	// Wrong-length primary vectors are never stored; fallback covers instead.
	_, source, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingSourceFallback, source)
}

func TestEmbed_FallbackUnusableWhenDimensionsDiffer(t *testing.T) {
	permanent := &port.ProviderError{StatusCode: http.StatusForbidden, Message: "denied"}
	provider := &fakeProvider{errs: []error{permanent}}
	e := newFastEmbedder(provider, 1536)

	_, _, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestFallback_Deterministic(t *testing.T) {
	a := Fallback("the quick brown fox")
	b := Fallback("the quick brown fox")
	assert.Equal(t, a, b)
}

func TestFallback_UnitNorm(t *testing.T) {
	v := Fallback("some non-empty text")
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestFallback_EmptyTextIsZeroVector(t *testing.T) {
	v := Fallback("")
	require.Len(t, v, FallbackDimension)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestFallback_ContentSensitive(t *testing.T) {
	assert.NotEqual(t, Fallback("alpha"), Fallback("beta"))
}

func TestMean_SkipsZeroVectors(t *testing.T) {
	vectors := [][]float32{
		{2, 0, 0},
		{0, 0, 0}, // skipped
		{0, 4, 0},
		nil, // skipped
	}
	mean := Mean(vectors)
	require.Len(t, mean, 3)
	assert.InDelta(t, 1.0, float64(mean[0]), 1e-6)
	assert.InDelta(t, 2.0, float64(mean[1]), 1e-6)
}

func TestMean_NoValidVectors(t *testing.T) {
	assert.Nil(t, Mean([][]float32{nil, {0, 0}}))
}
