package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/siherrmann/lexrag/helper"
)

// Extracted documents with less total text than this are treated as
// scanned or unreadable
const minExtractedLength = 100

// ExtractionError marks a document whose text could not be extracted.
// Ingestion aborts, reports it and does not retry.
type ExtractionError struct {
	FilePath string
	Reason   string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %s", e.FilePath, e.Reason)
}

// ExtractFunc extracts ordered page texts from a file
type ExtractFunc func(filePath string) ([]string, error)

// PDFExtractor creates an extractor that reads the plain text of every
// page of a PDF file in page order
func PDFExtractor() ExtractFunc {
	return func(filePath string) ([]string, error) {
		file, reader, err := pdf.Open(filePath)
		if err != nil {
			return nil, helper.NewError("open pdf", err)
		}
		defer file.Close()

		var pages []string
		for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
			page := reader.Page(pageIndex)
			if page.V.IsNull() {
				continue
			}

			text, err := page.GetPlainText(nil)
			if err != nil {
				// A single broken page does not fail the document
				continue
			}

			text = strings.TrimSpace(text)
			if text != "" {
				pages = append(pages, text)
			}
		}

		return pages, nil
	}
}

// TextExtractor creates an extractor that reads a plain text file as a
// single page
func TextExtractor() ExtractFunc {
	return func(filePath string) ([]string, error) {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, helper.NewError("read file", err)
		}

		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		return []string{text}, nil
	}
}

// joinPages joins ordered page texts into one document text and validates
// the minimum extractable length
func joinPages(filePath string, pages []string) (string, error) {
	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if len(text) < minExtractedLength {
		return "", &ExtractionError{
			FilePath: filePath,
			Reason:   fmt.Sprintf("extracted text has %d characters, document is likely scanned or empty", len(text)),
		}
	}
	return text, nil
}
