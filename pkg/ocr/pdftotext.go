package ocr

import (
	"context"
	"strings"
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

// ExtractText runs pdftotext -layout over the PDF bytes and returns the
// non-empty pages joined by newlines.
func (p *PdfToText) ExtractText(ctx context.Context, data []byte) (string, error) {
	out, err := run(ctx, p.binPath, "siteqa-*.pdf", data, "-layout", "{}", "-")
	if err != nil {
		return "", err
	}
	return joinPages(out), nil
}

func joinPages(out string) string {
	var pages []string
	for _, page := range strings.Split(out, "\f") {
		if strings.TrimSpace(page) != "" {
			pages = append(pages, strings.TrimRight(page, "\n"))
		}
	}
	return strings.Join(pages, "\n")
}
