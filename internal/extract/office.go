package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/doclens-ai/doclens/internal/domain"
)

// WordExtractor pulls paragraph text out of .docx archives (word/document.xml).
type WordExtractor struct{}

func (e *WordExtractor) MediaTypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword",
	}
}

func (e *WordExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	zr, err := zip.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("read document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("docx archive has no word/document.xml")
	}

	text, err := wordText(docXML)
	if err != nil {
		return nil, err
	}
	return SplitSections(text, file.Name, "document"), nil
}

// wordText walks the WordprocessingML token stream collecting run text and
// turning paragraph ends into blank-line boundaries.
func wordText(docXML []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(docXML))

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n\n")
			case "tab":
				sb.WriteString("\t")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// SpreadsheetExtractor emits one chunk per data row across all sheets,
// serialized as "header: value" pairs. The first row of each sheet is the
// header.
type SpreadsheetExtractor struct{}

func (e *SpreadsheetExtractor) MediaTypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel",
	}
}

func (e *SpreadsheetExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer wb.Close()

	var chunks []domain.RawChunk
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		header := rows[0]
		for i, row := range rows[1:] {
			content := serializeRow(header, row)
			if content == "" {
				continue
			}
			chunks = append(chunks, domain.RawChunk{
				Content: content,
				Metadata: domain.ChunkMetadata{
					Type:     "spreadsheet_row",
					Section:  fmt.Sprintf("%s Row %d", sheet, i+1),
					Filename: file.Name,
					Sheet:    sheet,
					Row:      i + 1,
				},
			})
		}
	}
	return chunks, nil
}

// PresentationExtractor is a placeholder: slide decks need layout analysis
// the system does not attempt, so it documents the limitation instead.
type PresentationExtractor struct{}

func (e *PresentationExtractor) MediaTypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.ms-powerpoint",
	}
}

func (e *PresentationExtractor) Extract(_ context.Context, file File) ([]domain.RawChunk, error) {
	return []domain.RawChunk{{
		Content: fmt.Sprintf(
			"Presentation file %q was uploaded. Slide content extraction is not supported; the file is stored but its slides were not indexed.",
			file.Name),
		Metadata: domain.ChunkMetadata{
			Type:             "presentation",
			Section:          "Section 1",
			Filename:         file.Name,
			ProcessingStatus: domain.ProcessingFailed,
		},
	}}, nil
}
