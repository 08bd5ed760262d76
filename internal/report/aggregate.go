// Package report consumes processed emails and produces the accountant
// deliverables: batch totals, expense categorization, a summary email
// (subject, HTML body, text body) and CSV/XLSX exports.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

// CategoryGeneral is the fallback bucket for attachments no rule claims.
const CategoryGeneral = "כללי"

// categoryRule classifies an attachment by keyword containment over the
// lowercased concatenation of extracted text, email subject and company
// name. Rules are evaluated in this fixed order and the first hit wins,
// so earlier buckets take precedence over later ones.
type categoryRule struct {
	name     string
	keywords []string
}

var categoryRules = []categoryRule{
	{"חשמל ואנרגיה", []string{"חשמל", "חברת חשמל"}},
	{"מים וביוב", []string{"מים", "מי"}},
	{"גז", []string{"גז"}},
	{"תקשורת ואינטרנט", []string{"אינטרנט", "תקשורת", "סלולר", "פלאפון"}},
	{"ביטוח", []string{"ביטוח"}},
	{"רכב ותחבורה", []string{"רכב", "דלק", "חניה"}},
	{"ציוד משרדי", []string{"משרד", "ציוד", "מחשב"}},
	{"שכירות ודמי ניהול", []string{"שכירות", "דמי ניהול"}},
	{"שירותים מקצועיים", []string{"יעוץ", "שירות"}},
}

// Categorize assigns one attachment to exactly one expense category.
func Categorize(att invoice.ProcessedAttachment, email invoice.ProcessedEmail) string {
	var company string
	if att.InvoiceData != nil {
		company = att.InvoiceData.CompanyName
	}
	haystack := strings.ToLower(att.ExtractedText + "\n" + email.Subject + "\n" + company)

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.name
			}
		}
	}
	return CategoryGeneral
}

// CategoryTotal is one category's accumulated amount, in rule priority
// order.
type CategoryTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Summary is the aggregate view over a batch of processed emails. It is
// recomputed from scratch on every call to Aggregate and never updated
// incrementally.
type Summary struct {
	TotalInvoices   int             `json:"total_invoices"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalVAT        decimal.Decimal `json:"total_vat"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	UniqueCompanies int             `json:"unique_companies"`
	Companies       []string        `json:"companies"`
	Categories      []CategoryTotal `json:"categories"`
	Period          string          `json:"period"`
}

// Aggregate folds a batch of processed emails into a Summary. Only
// emails with at least one successful attachment contribute. Absent
// amounts are excluded from sums, never counted as zero.
func Aggregate(emails []invoice.ProcessedEmail) Summary {
	var sum Summary

	companies := make(map[string]struct{})
	catTotals := make(map[string]*CategoryTotal)
	var periodDates []int64

	for _, email := range emails {
		if !email.HasSuccess() {
			continue
		}
		sum.TotalInvoices++
		periodDates = append(periodDates, email.InternalDate)

		for _, att := range email.Attachments {
			if !att.Success || att.InvoiceData == nil {
				continue
			}
			rec := att.InvoiceData
			if rec.TotalAmount != nil {
				sum.TotalAmount = sum.TotalAmount.Add(*rec.TotalAmount)
			}
			if rec.TaxAmount != nil {
				sum.TotalVAT = sum.TotalVAT.Add(*rec.TaxAmount)
			}
			if rec.CompanyName != "" {
				companies[rec.CompanyName] = struct{}{}
			}

			name := Categorize(att, email)
			ct, ok := catTotals[name]
			if !ok {
				ct = &CategoryTotal{Name: name}
				catTotals[name] = ct
			}
			ct.Count++
			if rec.TotalAmount != nil {
				ct.Amount = ct.Amount.Add(*rec.TotalAmount)
			}
		}
	}

	sum.NetAmount = sum.TotalAmount.Sub(sum.TotalVAT)
	sum.UniqueCompanies = len(companies)
	sum.Companies = make([]string, 0, len(companies))
	for c := range companies {
		sum.Companies = append(sum.Companies, c)
	}
	sort.Strings(sum.Companies)

	for _, rule := range categoryRules {
		if ct, ok := catTotals[rule.name]; ok {
			sum.Categories = append(sum.Categories, *ct)
		}
	}
	if ct, ok := catTotals[CategoryGeneral]; ok {
		sum.Categories = append(sum.Categories, *ct)
	}

	sum.Period = detectPeriod(periodDates)
	return sum
}

const dateLayout = "02.01.2006"

// detectPeriod renders the covered date span of the contributing
// emails: empty for none, a single date when they all share one, a
// "first - last" range otherwise.
func detectPeriod(millis []int64) string {
	if len(millis) == 0 {
		return ""
	}
	sort.Slice(millis, func(i, j int) bool { return millis[i] < millis[j] })

	first := formatMillis(millis[0])
	last := formatMillis(millis[len(millis)-1])
	if first == last {
		return first
	}
	return first + " - " + last
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(dateLayout)
}
