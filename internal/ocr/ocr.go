// Package ocr turns PDF documents into per-page text. Two providers are
// available: a pure-Go reader for native (text-layer) PDFs and the pdftotext
// CLI for documents the native reader handles poorly.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/config"
)

// Page is one page of extracted text, numbered from 1.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// Extractor extracts per-page text content from PDF files.
type Extractor interface {
	ExtractPages(ctx context.Context, pdfPath string) ([]Page, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "native", "":
		return NewNative(), nil
	case "pdftotext":
		return NewPdfToText(cfg.PdfToTextPath), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
