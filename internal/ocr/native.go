package ocr

import (
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Native extracts text from the PDF's text layer without external tools.
// Scanned documents produce empty pages; those need the pdftotext provider
// or upstream OCR.
type Native struct{}

// NewNative creates a Native extractor.
func NewNative() *Native {
	return &Native{}
}

// ExtractPages reads every page's text layer. Pages without one come back
// with empty text rather than being dropped, so page numbers stay aligned
// with the document.
func (n *Native) ExtractPages(ctx context.Context, pdfPath string) ([]Page, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: open %s", pdfPath)
	}
	defer f.Close()

	pages := make([]Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ocr: extraction canceled")
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, eris.Wrapf(err, "ocr: read page %d of %s", i, pdfPath)
		}

		var b strings.Builder
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}
		pages = append(pages, Page{Number: i, Text: b.String()})
	}

	return pages, nil
}
