package invoice

import (
	"time"

	"github.com/invoicebot/invoicebot/internal/extraction"
)

// Processing methods recorded on a ProcessedAttachment.
const (
	MethodPDFExtract = "PDF_EXTRACT"
	MethodOCR        = "OCR"
)

// AttachmentRef is attachment metadata as listed by the email source.
type AttachmentRef struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// Email is one message as listed by the email source, before processing.
type Email struct {
	ID           string          `json:"id"`
	Subject      string          `json:"subject"`
	From         string          `json:"from"`
	InternalDate int64           `json:"internal_date"` // epoch millis
	Attachments  []AttachmentRef `json:"attachments"`
}

// RawAttachment is one attachment's bytes, borrowed for a single
// processing call.
type RawAttachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// ProcessedAttachment is the outcome of processing one attachment.
// On failure only Filename, MimeType, Error and ProcessedAt are set.
type ProcessedAttachment struct {
	Filename         string             `json:"filename"`
	MimeType         string             `json:"mime_type"`
	ProcessingMethod string             `json:"processing_method,omitempty"`
	ExtractedText    string             `json:"extracted_text,omitempty"`
	InvoiceData      *extraction.Record `json:"invoice_data,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
	Success          bool               `json:"success"`
	Error            string             `json:"error,omitempty"`
	ProcessedAt      time.Time          `json:"processed_at"`
}

// ProcessedEmail is an email together with its attachment outcomes.
// IsProcessed is true once at least one processing attempt was made,
// whether or not any attachment succeeded.
type ProcessedEmail struct {
	ID           string                `json:"id"`
	Subject      string                `json:"subject"`
	From         string                `json:"from"`
	InternalDate int64                 `json:"internal_date"`
	Attachments  []ProcessedAttachment `json:"attachments"`
	IsProcessed  bool                  `json:"is_processed"`
	ProcessedAt  time.Time             `json:"processed_at"`
}

// HasSuccess reports whether at least one attachment was processed
// successfully.
func (e ProcessedEmail) HasSuccess() bool {
	for _, att := range e.Attachments {
		if att.Success {
			return true
		}
	}
	return false
}
