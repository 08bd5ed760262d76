package report

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xuri/excelize/v2"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

var _ = Describe("ExportXLSX", func() {
	var (
		emails []invoice.ProcessedEmail
		f      *excelize.File
	)

	BeforeEach(func() {
		emails = []invoice.ProcessedEmail{electricityEmail()}
	})

	JustBeforeEach(func() {
		data, err := ExportXLSX(emails)
		Expect(err).NotTo(HaveOccurred())
		f, err = excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if f != nil {
			f.Close()
		}
	})

	It("creates only the invoices sheet", func() {
		Expect(f.GetSheetList()).To(Equal([]string{"Invoices"}))
	})

	It("writes the header row", func() {
		v, err := f.GetCellValue("Invoices", "A1")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("תאריך מייל"))
	})

	It("writes success rows with numeric amounts", func() {
		total, err := f.GetCellValue("Invoices", "H2")
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal("117"))

		status, err := f.GetCellValue("Invoices", "L2")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal("הצליח"))
	})

	It("writes failure rows with the error status and blank amounts", func() {
		status, err := f.GetCellValue("Invoices", "L3")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal("שגיאה: corrupt"))

		total, err := f.GetCellValue("Invoices", "H3")
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeEmpty())
	})
})
