package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

//go:embed templates/report.html.tmpl templates/report.txt.tmpl
var templateFS embed.FS

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/report.html.tmpl"))
	textTmpl = texttemplate.Must(texttemplate.New("report.txt.tmpl").
			Funcs(texttemplate.FuncMap{"add": func(a, b int) int { return a + b }}).
			ParseFS(templateFS, "templates/report.txt.tmpl"))
)

// EmailContent is the rendered summary email for the accountant.
type EmailContent struct {
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

type categoryView struct {
	Name   string
	Amount string
}

type attachmentView struct {
	Filename      string
	CompanyName   string
	InvoiceNumber string
	Date          string
	Total         string
	Tax           string
}

type failureView struct {
	Filename string
	Error    string
}

type emailView struct {
	Subject   string
	From      string
	Date      string
	Successes []attachmentView
	Failures  []failureView
}

type reportView struct {
	GeneratedAt     string
	Period          string
	TotalInvoices   int
	GrossAmount     string
	NetAmount       string
	VATAmount       string
	UniqueCompanies int
	Categories      []categoryView
	Emails          []emailView
}

// BuildEmail renders the accountant summary from an aggregate and the
// batch it was computed over. Both bodies are produced from the same
// view of the data; failed attachments are always listed apart from the
// successful ones.
func BuildEmail(sum Summary, emails []invoice.ProcessedEmail, generatedAt time.Time) (EmailContent, error) {
	view := buildView(sum, emails, generatedAt)

	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, view); err != nil {
		return EmailContent{}, fmt.Errorf("rendering html body: %w", err)
	}
	var text bytes.Buffer
	if err := textTmpl.Execute(&text, view); err != nil {
		return EmailContent{}, fmt.Errorf("rendering text body: %w", err)
	}

	return EmailContent{
		Subject:  buildSubject(sum, generatedAt),
		HTMLBody: html.String(),
		TextBody: strings.TrimSpace(text.String()),
	}, nil
}

func buildSubject(sum Summary, generatedAt time.Time) string {
	period := sum.Period
	if period == "" {
		period = generatedAt.Format(dateLayout)
	}
	return fmt.Sprintf(`סיכום חשבוניות %s - %d חשבוניות, סה"כ %s ש"ח`,
		period, sum.TotalInvoices, formatAmount(sum.TotalAmount))
}

func buildView(sum Summary, emails []invoice.ProcessedEmail, generatedAt time.Time) reportView {
	view := reportView{
		GeneratedAt:     generatedAt.Format("02.01.2006 15:04"),
		Period:          sum.Period,
		TotalInvoices:   sum.TotalInvoices,
		GrossAmount:     formatAmount(sum.TotalAmount),
		NetAmount:       formatAmount(sum.NetAmount),
		VATAmount:       formatAmount(sum.TotalVAT),
		UniqueCompanies: sum.UniqueCompanies,
	}

	for _, ct := range sum.Categories {
		if ct.Amount.IsZero() {
			continue
		}
		view.Categories = append(view.Categories, categoryView{
			Name:   ct.Name,
			Amount: formatAmount(ct.Amount),
		})
	}

	for _, email := range emails {
		if !email.HasSuccess() {
			continue
		}
		ev := emailView{
			Subject: email.Subject,
			From:    email.From,
			Date:    formatMillis(email.InternalDate),
		}
		for _, att := range email.Attachments {
			if !att.Success {
				ev.Failures = append(ev.Failures, failureView{
					Filename: att.Filename,
					Error:    att.Error,
				})
				continue
			}
			av := attachmentView{Filename: att.Filename}
			if rec := att.InvoiceData; rec != nil {
				av.CompanyName = rec.CompanyName
				av.InvoiceNumber = rec.InvoiceNumber
				av.Date = rec.Date
				if rec.TotalAmount != nil {
					av.Total = formatAmount(*rec.TotalAmount)
				}
				if rec.TaxAmount != nil {
					av.Tax = formatAmount(*rec.TaxAmount)
				}
			}
			ev.Successes = append(ev.Successes, av)
		}
		view.Emails = append(view.Emails, ev)
	}

	return view
}

// formatAmount renders a decimal with thousands separators, keeping any
// fractional digits as-is.
func formatAmount(d decimal.Decimal) string {
	s := d.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
