package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/doclens-ai/doclens/internal/domain"
)

// CSVExtractor emits one chunk per data row, serialized as "header: value"
// pairs joined by commas. The first row is treated as the header.
type CSVExtractor struct{}

func (e *CSVExtractor) MediaTypes() []string {
	return []string{"text/csv", "application/csv"}
}

func (e *CSVExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	reader := csv.NewReader(bytes.NewReader(file.Data))
	reader.FieldsPerRecord = -1 // ragged rows are common in the wild

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	var chunks []domain.RawChunk
	for i, record := range records[1:] {
		content := serializeRow(header, record)
		if content == "" {
			continue
		}
		chunks = append(chunks, domain.RawChunk{
			Content: content,
			Metadata: domain.ChunkMetadata{
				Type:     "csv_row",
				Section:  fmt.Sprintf("Row %d", i+1),
				Filename: file.Name,
				Row:      i + 1,
			},
		})
	}
	return chunks, nil
}

// serializeRow renders one data row as "key: value" pairs joined by commas.
// Columns beyond the header keep a positional key.
func serializeRow(header, record []string) string {
	var parts []string
	for i, value := range record {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := fmt.Sprintf("column_%d", i+1)
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			key = strings.TrimSpace(header[i])
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, ", ")
}
