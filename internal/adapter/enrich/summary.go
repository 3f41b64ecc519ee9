// Package enrich provides post-ingestion enrichment strategies that derive
// document metadata (summary, tags) from the extracted chunk set.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/doclens-ai/doclens/internal/port"
)

// contextBudget caps how much extracted text a strategy feeds the model.
const contextBudget = 8000

type SummaryStrategy struct {
	ai port.AIProvider
}

func NewSummaryStrategy(ai port.AIProvider) *SummaryStrategy {
	return &SummaryStrategy{ai: ai}
}

func (s *SummaryStrategy) Name() string        { return "summary" }
func (s *SummaryStrategy) Description() string { return "Short natural-language document summary" }

func (s *SummaryStrategy) Enrich(ctx context.Context, req port.EnrichmentRequest) (*port.EnrichmentResult, error) {
	systemPrompt := `You summarize documents for a search index. Write 2-3 sentences capturing what the document is about and what a reader would find in it. Plain prose, no headings, no bullet points.`

	userPrompt := fmt.Sprintf("Document: %s\n\nContent:\n%s\n\nSummarize this document.",
		req.Filename, joinChunks(req.Chunks, contextBudget))

	response, err := s.ai.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("summary enrichment: %w", err)
	}

	return &port.EnrichmentResult{
		Strategy: s.Name(),
		Text:     strings.TrimSpace(response),
	}, nil
}

// joinChunks concatenates chunk contents up to the budget, keeping whole
// chunks so the model never sees a mid-sentence cut.
func joinChunks(chunks []string, budget int) string {
	var sb strings.Builder
	for _, c := range chunks {
		if sb.Len()+len(c) > budget && sb.Len() > 0 {
			break
		}
		sb.WriteString(c)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}
