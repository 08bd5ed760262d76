package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

// The column order is fixed and consumed by spreadsheet imports:
// email date, sender, subject, filename, company name, invoice number,
// invoice date, total amount, tax amount, net amount, category, status.
var csvHeaders = []string{
	"תאריך מייל",
	"שולח",
	"נושא",
	"קובץ",
	"שם חברה",
	"מספר חשבונית",
	"תאריך חשבונית",
	"סכום כולל",
	`מע"מ`,
	`סכום לפני מע"מ`,
	"קטגוריה",
	"סטטוס עיבוד",
}

const (
	statusSucceeded    = "הצליח"
	categoryUnassigned = "לא מסווג"
)

// ExportCSV renders one row per attachment across all given emails,
// successes and failures alike. Text fields are always quoted, numeric
// fields never are, and absent amounts render as blank cells rather
// than zeros. A byte-order marker is prepended for spreadsheet
// compatibility.
func ExportCSV(emails []invoice.ProcessedEmail) string {
	var sb strings.Builder
	sb.WriteString("\uFEFF")
	sb.WriteString(strings.Join(csvHeaders, ","))
	sb.WriteString("\n")

	for _, email := range emails {
		emailDate := formatMillis(email.InternalDate)
		for _, att := range email.Attachments {
			row := csvRow(email, att, emailDate)
			sb.WriteString(strings.Join(row, ","))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func csvRow(email invoice.ProcessedEmail, att invoice.ProcessedAttachment, emailDate string) []string {
	if !att.Success {
		return []string{
			quoteCSV(emailDate),
			quoteCSV(email.From),
			quoteCSV(email.Subject),
			quoteCSV(att.Filename),
			quoteCSV(""), quoteCSV(""), quoteCSV(""),
			"", "", "",
			quoteCSV(categoryUnassigned),
			quoteCSV("שגיאה: " + att.Error),
		}
	}

	var company, number, date string
	var total, tax *decimal.Decimal
	if rec := att.InvoiceData; rec != nil {
		company, number, date = rec.CompanyName, rec.InvoiceNumber, rec.Date
		total, tax = rec.TotalAmount, rec.TaxAmount
	}

	return []string{
		quoteCSV(emailDate),
		quoteCSV(email.From),
		quoteCSV(email.Subject),
		quoteCSV(att.Filename),
		quoteCSV(company),
		quoteCSV(number),
		quoteCSV(date),
		amountCell(total),
		amountCell(tax),
		amountCell(netAmount(total, tax)),
		quoteCSV(Categorize(att, email)),
		quoteCSV(statusSucceeded),
	}
}

// netAmount is total minus tax; absent tax counts as zero for the
// subtraction, but an absent total makes the net absent too.
func netAmount(total, tax *decimal.Decimal) *decimal.Decimal {
	if total == nil {
		return nil
	}
	net := *total
	if tax != nil {
		net = net.Sub(*tax)
	}
	return &net
}

func amountCell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
