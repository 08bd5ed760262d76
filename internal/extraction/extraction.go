// Package extraction turns raw invoice text (from PDF extraction or OCR)
// into a structured Record. It is a deterministic, rule-based transformer:
// each field has an ordered list of candidate patterns and the first
// pattern that matches wins. No field extractor ever fails; a field that
// cannot be recognized is simply absent from the Record.
package extraction

import (
	"github.com/shopspring/decimal"
)

// Item is a single line item recognized in the invoice body.
type Item struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// CustomerInfo holds whatever addressee details were recognized.
type CustomerInfo struct {
	Name string `json:"name,omitempty"`
}

// Record is the structured result of extracting one attachment's text.
// String fields use "" for absent; amount fields use nil for absent.
// An absent amount is excluded from downstream sums, never treated as 0.
type Record struct {
	CompanyName   string           `json:"company_name,omitempty"`
	CompanyID     string           `json:"company_id,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Date          string           `json:"date,omitempty"` // ISO-8601 (YYYY-MM-DD)
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	TaxAmount     *decimal.Decimal `json:"tax_amount,omitempty"`
	Items         []Item           `json:"items"`
	Customer      CustomerInfo     `json:"customer_info"`
}

// ExtractRecord runs every field extractor over the given text and
// assembles the results. Calling it twice on the same text yields the
// same Record.
func ExtractRecord(text string) *Record {
	rec := &Record{
		Items: extractItems(text),
	}
	if v, ok := extractCompanyName(text); ok {
		rec.CompanyName = v
	}
	if v, ok := extractCompanyID(text); ok {
		rec.CompanyID = v
	}
	if v, ok := extractInvoiceNumber(text); ok {
		rec.InvoiceNumber = v
	}
	if v, ok := extractDate(text); ok {
		rec.Date = v
	}
	if v, ok := extractAmount(text, totalAmountPatterns); ok {
		rec.TotalAmount = &v
	}
	if v, ok := extractAmount(text, taxAmountPatterns); ok {
		rec.TaxAmount = &v
	}
	if v, ok := extractCustomerName(text); ok {
		rec.Customer.Name = v
	}
	return rec
}

// Validate flags bookkeeping fields that are missing from the record.
// The warnings are advisory: a record with warnings is still usable.
func Validate(rec *Record) []string {
	var warnings []string
	if rec.CompanyName == "" {
		warnings = append(warnings, "לא נמצא שם חברה")
	}
	if rec.TotalAmount == nil || !rec.TotalAmount.IsPositive() {
		warnings = append(warnings, "לא נמצא סכום תקין")
	}
	if rec.Date == "" {
		warnings = append(warnings, "לא נמצא תאריך")
	}
	return warnings
}
