package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/doclens-ai/doclens/internal/domain"
)

// SetPDFLicense configures the UniDoc metered license key. Call once at
// startup; without a key PDF extraction runs in unlicensed dev mode.
func SetPDFLicense(key string) error {
	if key == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}

// PDFExtractor extracts page text via UniPDF and splits it into sections.
// Scanned PDFs with no text layer yield a single diagnostic chunk.
type PDFExtractor struct{}

func (e *PDFExtractor) MediaTypes() []string {
	return []string{"application/pdf"}
}

func (e *PDFExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("get page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("page %d extractor: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	chunks := SplitSections(sb.String(), file.Name, "pdf")
	if len(chunks) == 0 {
		// Likely a scanned document; OCR is out of scope.
		return []domain.RawChunk{{
			Content: fmt.Sprintf(
				"PDF %q contains no extractable text layer (%d pages). It may be a scanned document; OCR is not supported.",
				file.Name, numPages),
			Metadata: domain.ChunkMetadata{
				Type:             "pdf",
				Section:          "Section 1",
				Filename:         file.Name,
				ProcessingStatus: domain.ProcessingFailed,
			},
		}}, nil
	}
	return chunks, nil
}
