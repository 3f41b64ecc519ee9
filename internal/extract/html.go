package extract

import (
	"context"
	"html"
	"regexp"

	"github.com/doclens-ai/doclens/internal/domain"
)

var (
	scriptBlocks = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	blockBreaks  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|table|section|article|blockquote|pre)>|<br\s*/?>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
)

// HTMLExtractor strips markup and splits the remaining text into sections.
type HTMLExtractor struct{}

func (e *HTMLExtractor) MediaTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (e *HTMLExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	text := string(file.Data)
	text = scriptBlocks.ReplaceAllString(text, "")
	// Block-level closers become paragraph boundaries before tags are dropped.
	text = blockBreaks.ReplaceAllString(text, "\n\n")
	text = anyTag.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = spaceRuns.ReplaceAllString(text, " ")

	return SplitSections(text, file.Name, "html"), nil
}
