// Package extract turns uploaded files into raw content chunks, dispatching
// on declared media type to one extractor per format. Extraction is total:
// every file yields at least one chunk, with failures contained per file and
// reported as a single diagnostic chunk instead of an error.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/doclens-ai/doclens/internal/domain"
)

// File is a fetched upload handed to the dispatcher.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Extractor produces raw chunks from one file format.
type Extractor interface {
	// MediaTypes returns the declared media types this extractor handles.
	MediaTypes() []string

	// Extract converts file bytes to content chunks.
	Extract(ctx context.Context, file File) ([]domain.RawChunk, error)
}

// Dispatcher routes files to format-specific extractors. Unknown media types
// fall through to the plain-text extractor.
type Dispatcher struct {
	byType   map[string]Extractor
	fallback Extractor
}

// NewDispatcher creates a dispatcher with the full set of format extractors.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		byType:   make(map[string]Extractor),
		fallback: &PlainTextExtractor{},
	}
	d.register(
		&PDFExtractor{},
		&WordExtractor{},
		&SpreadsheetExtractor{},
		&PresentationExtractor{},
		&HTMLExtractor{},
		&CSVExtractor{},
		&NotebookExtractor{},
		&ImageExtractor{},
	)
	return d
}

func (d *Dispatcher) register(extractors ...Extractor) {
	for _, e := range extractors {
		for _, mt := range e.MediaTypes() {
			d.byType[mt] = e
		}
	}
}

// Extract runs the matching extractor for file. It never returns an empty
// slice and never propagates extractor errors or panics: any failure becomes
// a single diagnostic chunk marked processing_status "failed".
func (d *Dispatcher) Extract(ctx context.Context, file File) []domain.RawChunk {
	chunks, err := d.run(ctx, file)
	if err != nil {
		return []domain.RawChunk{FailureChunk(file.Name, fmt.Sprintf(
			"Failed to extract content from %q (%s): %v. The file may be corrupt or in an unsupported variant of its format.",
			file.Name, file.MediaType, err))}
	}
	if len(chunks) == 0 {
		return []domain.RawChunk{FailureChunk(file.Name, fmt.Sprintf(
			"No extractable text found in %q (%s).", file.Name, file.MediaType))}
	}
	return chunks
}

func (d *Dispatcher) run(ctx context.Context, file File) (chunks []domain.RawChunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return d.extractorFor(file.MediaType).Extract(ctx, file)
}

func (d *Dispatcher) extractorFor(mediaType string) Extractor {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if e, ok := d.byType[mt]; ok {
		return e
	}
	if strings.HasPrefix(mt, "image/") {
		return &ImageExtractor{}
	}
	return d.fallback
}

// FailureChunk builds the diagnostic chunk emitted when an extractor cannot
// produce real text from a file.
func FailureChunk(filename, message string) domain.RawChunk {
	return domain.RawChunk{
		Content: message,
		Metadata: domain.ChunkMetadata{
			Type:             "extraction_failure",
			Section:          "Section 1",
			Filename:         filename,
			ProcessingStatus: domain.ProcessingFailed,
		},
	}
}
