package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractPages runs pdftotext -layout on the given PDF and splits stdout on
// form feeds, which pdftotext emits at page boundaries.
func (p *PdfToText) ExtractPages(ctx context.Context, pdfPath string) ([]Page, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "ocr: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	return splitFormFeeds(stdout.String()), nil
}

// splitFormFeeds turns pdftotext output into numbered pages. A trailing form
// feed after the last page is normal and does not produce an empty page.
func splitFormFeeds(out string) []Page {
	chunks := strings.Split(out, "\f")
	if n := len(chunks); n > 1 && strings.TrimSpace(chunks[n-1]) == "" {
		chunks = chunks[:n-1]
	}

	pages := make([]Page, len(chunks))
	for i, chunk := range chunks {
		pages[i] = Page{Number: i + 1, Text: chunk}
	}
	return pages
}
