package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// firstMatch returns the trimmed first capture group of the first
// pattern in the list that matches.
func firstMatch(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil && m[1] != "" {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func extractCompanyName(text string) (string, bool) {
	return firstMatch(text, companyNamePatterns)
}

// extractCompanyID returns the registration number as a string to keep
// any leading zeros intact.
func extractCompanyID(text string) (string, bool) {
	return firstMatch(text, companyIDPatterns)
}

func extractInvoiceNumber(text string) (string, bool) {
	return firstMatch(text, invoiceNumberPatterns)
}

var dateLayouts = []string{"1/2/2006", "1/2/06", "1-2-2006", "1-2-06"}

// extractDate finds a day/month/year token and re-emits it as an
// ISO-8601 date. A token that matches a pattern but is not a valid
// calendar date is skipped and the next candidate is tried.
func extractDate(text string) (string, bool) {
	for _, p := range datePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		raw := strings.ReplaceAll(m[1], ".", "/")
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

// extractAmount finds a labeled numeric token, strips thousands
// separators and parses it as a decimal. Parse failures fall through to
// the next candidate pattern.
func extractAmount(text string, patterns []*regexp.Regexp) (decimal.Decimal, bool) {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || d.IsNegative() {
			continue
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

// extractItems scans the text line by line; every line that looks like a
// description followed by an amount and a currency marker contributes
// one item, in document order.
func extractItems(text string) []Item {
	items := []Item{}
	for _, line := range strings.Split(text, "\n") {
		m := itemLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(m[2])
		if err != nil {
			continue
		}
		items = append(items, Item{
			Description: strings.TrimSpace(m[1]),
			Amount:      amount,
		})
	}
	return items
}

func extractCustomerName(text string) (string, bool) {
	return firstMatch(text, customerPatterns)
}
