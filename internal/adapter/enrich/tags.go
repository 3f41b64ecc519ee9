package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doclens-ai/doclens/internal/port"
)

type TagsStrategy struct {
	ai port.AIProvider
}

func NewTagsStrategy(ai port.AIProvider) *TagsStrategy {
	return &TagsStrategy{ai: ai}
}

func (s *TagsStrategy) Name() string        { return "tags" }
func (s *TagsStrategy) Description() string { return "Topical tags for filtering and browsing" }

func (s *TagsStrategy) Enrich(ctx context.Context, req port.EnrichmentRequest) (*port.EnrichmentResult, error) {
	systemPrompt := `You label documents for a search index. Respond ONLY with a JSON array of 3-6 short lowercase topic tags, e.g. ["finance","quarterly report","revenue"]. No prose, no markdown fences.`

	userPrompt := fmt.Sprintf("Document: %s\n\nContent:\n%s\n\nProduce the tags.",
		req.Filename, joinChunks(req.Chunks, contextBudget))

	response, err := s.ai.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("tags enrichment: %w", err)
	}

	return &port.EnrichmentResult{
		Strategy: s.Name(),
		Tags:     parseTags(response),
	}, nil
}

// parseTags accepts a JSON array, optionally fenced; anything unparsable
// yields no tags rather than an error.
func parseTags(response string) []string {
	cleaned := StripFences(response)

	var tags []string
	if err := json.Unmarshal([]byte(cleaned), &tags); err != nil {
		return nil
	}
	out := tags[:0]
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// StripFences removes surrounding markdown code-fence markup, with or
// without a language tag.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// Drop a language tag like "json" on the opening fence line.
		first := strings.TrimSpace(s[:i])
		if first != "" && !strings.HasPrefix(first, "[") && !strings.HasPrefix(first, "{") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
