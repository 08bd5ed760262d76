package report

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

var _ = Describe("ExportCSV", func() {
	var (
		emails []invoice.ProcessedEmail
		out    string
		lines  []string
	)

	BeforeEach(func() {
		emails = []invoice.ProcessedEmail{electricityEmail(), bareReceiptEmail()}
	})

	JustBeforeEach(func() {
		out = ExportCSV(emails)
		lines = strings.Split(strings.TrimRight(out, "\n"), "\n")
	})

	It("starts with a UTF-8 byte order marker", func() {
		Expect(out).To(HavePrefix("\uFEFF"))
	})

	It("emits one row per attachment across all emails, after the header", func() {
		Expect(lines).To(HaveLen(4))
	})

	It("writes the fixed Hebrew header row", func() {
		Expect(strings.TrimPrefix(lines[0], "\uFEFF")).To(Equal(
			`תאריך מייל,שולח,נושא,קובץ,שם חברה,מספר חשבונית,תאריך חשבונית,סכום כולל,מע"מ,סכום לפני מע"מ,קטגוריה,סטטוס עיבוד`))
	})

	It("quotes text fields and leaves numeric fields unquoted", func() {
		Expect(lines[1]).To(Equal(
			`"15.01.2024","billing@iec.co.il","חשבון חשמל","invoice.pdf","חברת החשמל","INV-1","2024-01-15",117,17,100,"חשמל ואנרגיה","הצליח"`))
	})

	It("writes failure rows with blank financials and the error status", func() {
		Expect(lines[2]).To(Equal(
			`"15.01.2024","billing@iec.co.il","חשבון חשמל","broken.pdf","","","",,,,"לא מסווג","שגיאה: corrupt"`))
	})

	It("leaves absent amounts blank rather than zero", func() {
		Expect(lines[3]).To(Equal(
			`"31.01.2024","x@y","קבלה","scan.jpg","","","",,,,"כללי","הצליח"`))
	})

	When("a text field contains quotes", func() {
		BeforeEach(func() {
			email := electricityEmail()
			email.Attachments[0].InvoiceData.CompanyName = `חברת החשמל בע"מ`
			emails = []invoice.ProcessedEmail{email}
		})

		It("doubles the embedded quotes", func() {
			Expect(lines[1]).To(ContainSubstring(`"חברת החשמל בע""מ"`))
		})
	})

	When("there are no emails", func() {
		BeforeEach(func() {
			emails = nil
		})

		It("still emits the header", func() {
			Expect(lines).To(HaveLen(1))
		})
	})
})
