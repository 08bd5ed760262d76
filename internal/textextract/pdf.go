package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ocrBackend matches the OCR extractors in this package; the PDF
// extractor uses one to handle scanned PDFs without a text layer.
type ocrBackend interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PDFExtractor extracts the native text layer of a PDF. When the
// document has no text layer at all and an OCR fallback is configured,
// the pages are rasterized and OCR'd instead.
type PDFExtractor struct {
	fallback ocrBackend
	maxPages int
}

// NewPDFExtractor creates a PDFExtractor. fallback may be nil, in which
// case scanned PDFs yield empty text rather than an error.
func NewPDFExtractor(fallback ocrBackend) *PDFExtractor {
	return &PDFExtractor{fallback: fallback, maxPages: 16}
}

// Extract returns the concatenated text of all pages.
func (p *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages > p.maxPages {
		pages = p.maxPages
	}

	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", i, err)
		}
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteString("\n")
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" && p.fallback != nil {
		return p.ocrPages(ctx, data, pages)
	}
	return text, nil
}

// ocrPages rasterizes each page and runs it through the OCR fallback.
func (p *PDFExtractor) ocrPages(ctx context.Context, data []byte, pages int) (string, error) {
	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pngData, err := renderPDFPage(data, i)
		if err != nil {
			return "", err
		}
		text, err := p.fallback.Extract(ctx, pngData)
		if err != nil {
			return "", fmt.Errorf("ocr of PDF page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
