// Package chunker segments raw text into bounded, overlapping windows for
// embedding. It is the ingestion path for plain full-document text; the
// extract package handles formats with inherent structure.
package chunker

import (
	"fmt"

	"github.com/doclens-ai/doclens/internal/domain"
)

// Defaults for the sliding window.
const (
	DefaultMaxLength = 1000
	DefaultOverlap   = 200
)

// Split cuts text into windows of at most maxLength characters, each
// overlapping the previous by overlap characters. The window start advances
// by maxLength-overlap, so overlap is clamped below maxLength to guarantee
// forward progress. Empty text yields no chunks.
func Split(text string, maxLength, overlap int) []domain.RawChunk {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxLength {
		overlap = maxLength - 1
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []domain.RawChunk
	for start := 0; ; start += maxLength - overlap {
		end := start + maxLength
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.RawChunk{
			Content: string(runes[start:end]),
			Metadata: domain.ChunkMetadata{
				Type:    "text",
				Section: fmt.Sprintf("Chunk %d", len(chunks)+1),
			},
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
