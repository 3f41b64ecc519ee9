package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/doclens-ai/doclens/internal/domain"
)

var blankLines = regexp.MustCompile(`\n{2,}`)

// PlainTextExtractor handles plain text and anything without a dedicated
// extractor. It splits on blank-line boundaries, one chunk per section.
type PlainTextExtractor struct{}

func (e *PlainTextExtractor) MediaTypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"application/json",
		"application/xml",
		"text/xml",
	}
}

func (e *PlainTextExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	return SplitSections(string(file.Data), file.Name, "text"), nil
}

// SplitSections splits full text on runs of two or more newlines into
// candidate sections, drops whitespace-only sections, and labels survivors
// with 1-based sequential section numbers.
func SplitSections(text, filename, chunkType string) []domain.RawChunk {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []domain.RawChunk
	for _, section := range blankLines.Split(normalized, -1) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		chunks = append(chunks, domain.RawChunk{
			Content: section,
			Metadata: domain.ChunkMetadata{
				Type:     chunkType,
				Section:  fmt.Sprintf("Section %d", len(chunks)+1),
				Filename: filename,
			},
		})
	}
	return chunks
}
