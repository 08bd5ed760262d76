package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/invoicebot/invoicebot/internal/extraction"
)

// TextExtractor turns raw attachment bytes into plain text. Implemented
// by the PDF and OCR backends in internal/textextract; any failure is
// reported as an error, never a panic.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time { return time.Now() }

// Processor runs one attachment through the pipeline:
// bytes -> (PDF text extraction | OCR) -> field extraction.
type Processor struct {
	pdf        TextExtractor
	ocr        TextExtractor
	timeSource TimeSource
}

// NewProcessor creates a Processor with the real clock.
func NewProcessor(pdf, ocr TextExtractor) *Processor {
	return &Processor{pdf: pdf, ocr: ocr, timeSource: defaultTimeSource{}}
}

// NewProcessorWithDeps creates a Processor with a custom clock for testing.
func NewProcessorWithDeps(pdf, ocr TextExtractor, ts TimeSource) *Processor {
	return &Processor{pdf: pdf, ocr: ocr, timeSource: ts}
}

// Process handles a single attachment. It is a total function: every
// failure, including an unsupported MIME type or a backend error, is
// captured in the returned ProcessedAttachment and never propagated, so
// one bad attachment cannot abort its siblings.
func (p *Processor) Process(ctx context.Context, att RawAttachment) ProcessedAttachment {
	result := ProcessedAttachment{
		Filename:    att.Filename,
		MimeType:    att.MimeType,
		ProcessedAt: p.timeSource.Now(),
	}

	var (
		backend TextExtractor
		method  string
	)
	switch {
	case att.MimeType == "application/pdf":
		backend, method = p.pdf, MethodPDFExtract
	case strings.HasPrefix(att.MimeType, "image/"):
		backend, method = p.ocr, MethodOCR
	default:
		result.Error = fmt.Sprintf("unsupported file type: %s", att.MimeType)
		return result
	}

	text, err := backend.Extract(ctx, att.Data)
	if err != nil {
		slog.Error("text extraction failed",
			"filename", att.Filename,
			"mime_type", att.MimeType,
			"method", method,
			"error", err,
		)
		result.Error = err.Error()
		return result
	}

	record := extraction.ExtractRecord(text)
	result.ProcessingMethod = method
	result.ExtractedText = text
	result.InvoiceData = record
	result.Warnings = extraction.Validate(record)
	result.Success = true
	return result
}
