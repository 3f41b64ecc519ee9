package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doclens-ai/doclens/internal/domain"
)

// NotebookExtractor handles Jupyter notebook JSON: one chunk per non-empty
// cell, tagged with the originating cell type.
type NotebookExtractor struct{}

func (e *NotebookExtractor) MediaTypes() []string {
	return []string{"application/x-ipynb+json"}
}

// notebookCell covers both the modern list form and the legacy string form
// of the source field.
type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

func (e *NotebookExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	var nb struct {
		Cells []notebookCell `json:"cells"`
	}
	if err := json.Unmarshal(file.Data, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}

	var chunks []domain.RawChunk
	for _, cell := range nb.Cells {
		content := strings.TrimSpace(cellSource(cell.Source))
		if content == "" {
			continue
		}
		chunks = append(chunks, domain.RawChunk{
			Content: content,
			Metadata: domain.ChunkMetadata{
				Type:     "notebook_cell",
				Section:  fmt.Sprintf("Cell %d", len(chunks)+1),
				Filename: file.Name,
				CellType: cell.CellType,
			},
		})
	}
	return chunks, nil
}

func cellSource(raw json.RawMessage) string {
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
