package report

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

var _ = Describe("BuildEmail", func() {
	var (
		emails      []invoice.ProcessedEmail
		generatedAt time.Time
		content     EmailContent
		err         error
	)

	BeforeEach(func() {
		emails = []invoice.ProcessedEmail{electricityEmail(), failedEmail()}
		generatedAt = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	})

	JustBeforeEach(func() {
		content, err = BuildEmail(Aggregate(emails), emails, generatedAt)
	})

	It("renders without error", func() {
		Expect(err).NotTo(HaveOccurred())
	})

	It("builds the subject from the period, count and total", func() {
		Expect(content.Subject).To(Equal(`סיכום חשבוניות 15.01.2024 - 1 חשבוניות, סה"כ 117 ש"ח`))
	})

	It("includes the invoice details in the HTML body", func() {
		Expect(content.HTMLBody).To(ContainSubstring("חברת החשמל"))
		Expect(content.HTMLBody).To(ContainSubstring("INV-1"))
		Expect(content.HTMLBody).To(ContainSubstring("invoice.pdf"))
	})

	It("lists failed attachments apart from successes", func() {
		Expect(content.HTMLBody).To(ContainSubstring("broken.pdf"))
		Expect(content.HTMLBody).To(ContainSubstring("corrupt"))
	})

	It("omits emails with no successful attachment from the detail list", func() {
		Expect(content.HTMLBody).NotTo(ContainSubstring("bad.zip"))
	})

	It("renders the same data in the text body", func() {
		Expect(content.TextBody).To(ContainSubstring("חברת החשמל"))
		Expect(content.TextBody).To(ContainSubstring("invoice.pdf"))
		Expect(content.TextBody).To(ContainSubstring(`סה"כ חשבוניות: 1`))
	})

	It("stamps the generation time", func() {
		Expect(content.HTMLBody).To(ContainSubstring("01.02.2024 09:30"))
	})

	When("the batch is empty", func() {
		BeforeEach(func() {
			emails = nil
		})

		It("falls back to the generation date in the subject", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(content.Subject).To(Equal(`סיכום חשבוניות 01.02.2024 - 0 חשבוניות, סה"כ 0 ש"ח`))
		})
	})
})
