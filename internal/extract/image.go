package extract

import (
	"context"
	"fmt"

	"github.com/doclens-ai/doclens/internal/domain"
)

// ImageExtractor is a placeholder for raster images: no OCR or visual
// understanding is attempted, so it records the limitation as a chunk.
type ImageExtractor struct{}

func (e *ImageExtractor) MediaTypes() []string {
	return []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/tiff"}
}

func (e *ImageExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	return []domain.RawChunk{{
		Content: fmt.Sprintf(
			"Image file %q (%s) was uploaded. Image content analysis and OCR are not supported; no text was extracted.",
			file.Name, file.MediaType),
		Metadata: domain.ChunkMetadata{
			Type:             "image",
			Section:          "Section 1",
			Filename:         file.Name,
			ProcessingStatus: domain.ProcessingFailed,
		},
	}}, nil
}
