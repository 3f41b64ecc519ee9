package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ExactWindows(t *testing.T) {
	text := strings.Repeat("A", 2500)
	chunks := Split(text, 1000, 200)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Content, 1000)
	assert.Len(t, chunks[1].Content, 1000)
	assert.Len(t, chunks[2].Content, 700)
	assert.Equal(t, "Chunk 1", chunks[0].Metadata.Section)
	assert.Equal(t, "Chunk 3", chunks[2].Metadata.Section)
	assert.Equal(t, "text", chunks[0].Metadata.Type)
}

func TestSplit_CoversTextWithOverlap(t *testing.T) {
	// Distinct runes let us verify offsets: window i starts at i*(max-overlap).
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteRune(rune('a' + i%26))
	}
	text := b.String()

	chunks := Split(text, 20, 5)
	require.NotEmpty(t, chunks)

	step := 15
	for i, c := range chunks {
		start := i * step
		end := start + 20
		if end > len(text) {
			end = len(text)
		}
		assert.Equal(t, text[start:end], c.Content, "chunk %d", i)
	}
	// Last chunk must reach the end of the text.
	last := chunks[len(chunks)-1].Content
	assert.True(t, strings.HasSuffix(text, last))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	chunks := Split("short", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0].Content)
}

func TestSplit_EmptyText(t *testing.T) {
	assert.Nil(t, Split("", 1000, 200))
}

func TestSplit_OverlapClampedForProgress(t *testing.T) {
	// overlap >= maxLength would loop forever without clamping.
	chunks := Split(strings.Repeat("x", 30), 10, 10)
	require.NotEmpty(t, chunks)
	assert.LessOrEqual(t, len(chunks), 30)
	assert.Equal(t, strings.Repeat("x", 10), chunks[0].Content)
}

func TestSplit_MultibyteRunesNotSplit(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 100)
	chunks := Split(text, 50, 10)
	var joined []rune
	for i, c := range chunks {
		runes := []rune(c.Content)
		if i == 0 {
			joined = append(joined, runes...)
		} else {
			joined = append(joined, runes[10:]...)
		}
	}
	assert.Equal(t, text, string(joined))
}
