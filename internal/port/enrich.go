package port

import "context"

// EnrichmentStrategy defines a pluggable post-ingestion enricher (Strategy
// Pattern). Each strategy derives one piece of document metadata from the
// completed chunk set.
type EnrichmentStrategy interface {
	// Name returns the unique name of this strategy (e.g. "summary", "tags").
	Name() string

	// Description returns a human-readable description of what this strategy produces.
	Description() string

	// Enrich executes the strategy over the document's extracted text.
	Enrich(ctx context.Context, req EnrichmentRequest) (*EnrichmentResult, error)
}

// EnrichmentRequest contains everything a strategy needs.
type EnrichmentRequest struct {
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename"`
	Chunks     []string `json:"chunks"`
}

// EnrichmentResult holds the output of an enrichment strategy.
type EnrichmentResult struct {
	Strategy string   `json:"strategy"`
	Text     string   `json:"text,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// EnrichmentEngine orchestrates multiple strategies.
type EnrichmentEngine struct {
	strategies map[string]EnrichmentStrategy
}

// NewEnrichmentEngine creates a new engine with the given strategies.
func NewEnrichmentEngine(strategies ...EnrichmentStrategy) *EnrichmentEngine {
	m := make(map[string]EnrichmentStrategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &EnrichmentEngine{strategies: m}
}

// Run executes the named strategy.
func (e *EnrichmentEngine) Run(ctx context.Context, name string, req EnrichmentRequest) (*EnrichmentResult, error) {
	s, ok := e.strategies[name]
	if !ok {
		return nil, ErrEnricherNotFound
	}
	return s.Enrich(ctx, req)
}

// Available returns the names of all registered strategies.
func (e *EnrichmentEngine) Available() []string {
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	return names
}
