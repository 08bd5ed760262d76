package textextract

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// renderPDFPage rasterizes one page of a PDF to PNG, for running OCR on
// scanned PDFs that carry no text layer.
func renderPDFPage(pdfData []byte, page int) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(page)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// normalizeToPNG decodes any supported image format and re-encodes it
// as PNG, which every OCR backend accepts. HEIC/HEIF (common for phone
// photos of paper invoices) is detected by its ftyp box because the
// standard image package cannot decode it.
func normalizeToPNG(imageData []byte) ([]byte, error) {
	var img image.Image
	var err error

	if isHEICData(imageData) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICData checks the ftyp box brands that mark HEIC/HEIF containers.
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
