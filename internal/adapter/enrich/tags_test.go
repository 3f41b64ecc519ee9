package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens-ai/doclens/internal/port"
)

type staticProvider struct {
	response string
	err      error
}

func (p *staticProvider) ModelName() string      { return "static" }
func (p *staticProvider) EmbedModelName() string { return "static-embed" }
func (p *staticProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, nil
}
func (p *staticProvider) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, nil
}
func (p *staticProvider) Generate(context.Context, string, string) (string, error) {
	return p.response, p.err
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `["a","b"]`, `["a","b"]`},
		{"plain fences", "```\n[\"a\"]\n```", `["a"]`},
		{"json language tag", "```json\n[\"a\",\"b\"]\n```", `["a","b"]`},
		{"inline fences", "```[1]```", "[1]"},
		{"surrounding whitespace", "  ```json\n[]\n```  ", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"finance", "report"}, parseTags(`["finance","report"]`))
	assert.Equal(t, []string{"a"}, parseTags("```json\n[\"a\", \"  \"]\n```"))
	assert.Nil(t, parseTags("not json at all"))
	assert.Empty(t, parseTags("[]"))
}

func TestTagsStrategy_Enrich(t *testing.T) {
	s := NewTagsStrategy(&staticProvider{response: "```json\n[\"go\",\"testing\"]\n```"})
	res, err := s.Enrich(context.Background(), port.EnrichmentRequest{
		DocumentID: "d1",
		Filename:   "guide.txt",
		Chunks:     []string{"some content"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "testing"}, res.Tags)
	assert.Equal(t, "tags", res.Strategy)
}

func TestSummaryStrategy_Enrich(t *testing.T) {
	s := NewSummaryStrategy(&staticProvider{response: "  A short summary.  "})
	res, err := s.Enrich(context.Background(), port.EnrichmentRequest{
		Filename: "guide.txt",
		Chunks:   []string{"some content"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", res.Text)
}

func TestJoinChunks_RespectsBudget(t *testing.T) {
	long := make([]string, 100)
	for i := range long {
		long[i] = "0123456789"
	}
	joined := joinChunks(long, 50)
	assert.LessOrEqual(t, len(joined), 60)
	assert.NotEmpty(t, joined)
}
