package invoice

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Processor", func() {
	var (
		pdf       *mockExtractor
		ocr       *mockExtractor
		timeSrc   *mockTimeSource
		processor *Processor
		att       RawAttachment
		result    ProcessedAttachment
	)

	BeforeEach(func() {
		pdf = &mockExtractor{text: invoiceText}
		ocr = &mockExtractor{text: invoiceText}
		timeSrc = &mockTimeSource{now: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)}
		processor = NewProcessorWithDeps(pdf, ocr, timeSrc)
		att = RawAttachment{
			Filename: "invoice.pdf",
			MimeType: "application/pdf",
			Data:     []byte("pdf bytes"),
		}
	})

	JustBeforeEach(func() {
		result = processor.Process(context.Background(), att)
	})

	When("processing a PDF succeeds", func() {
		It("marks the result successful", func() {
			Expect(result.Success).To(BeTrue())
			Expect(result.Error).To(BeEmpty())
		})

		It("records the extraction method", func() {
			Expect(result.ProcessingMethod).To(Equal(MethodPDFExtract))
		})

		It("keeps the extracted text", func() {
			Expect(result.ExtractedText).To(Equal(invoiceText))
		})

		It("attaches the extracted invoice data", func() {
			Expect(result.InvoiceData).NotTo(BeNil())
			Expect(result.InvoiceData.InvoiceNumber).To(Equal("555"))
		})

		It("produces no warnings for a complete invoice", func() {
			Expect(result.Warnings).To(BeEmpty())
		})

		It("stamps the processing time", func() {
			Expect(result.ProcessedAt).To(Equal(timeSrc.now))
		})

		It("does not touch the OCR backend", func() {
			Expect(ocr.callCount()).To(BeZero())
		})
	})

	When("processing an image", func() {
		BeforeEach(func() {
			att = RawAttachment{
				Filename: "scan.heic",
				MimeType: "image/heic",
				Data:     []byte("image bytes"),
			}
		})

		It("routes to the OCR backend", func() {
			Expect(result.Success).To(BeTrue())
			Expect(result.ProcessingMethod).To(Equal(MethodOCR))
			Expect(pdf.callCount()).To(BeZero())
			Expect(ocr.callCount()).To(Equal(1))
		})
	})

	When("the file type is unsupported", func() {
		BeforeEach(func() {
			att = RawAttachment{
				Filename: "archive.zip",
				MimeType: "application/zip",
				Data:     []byte("zip bytes"),
			}
		})

		It("fails without calling any backend", func() {
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("unsupported file type: application/zip"))
			Expect(pdf.callCount()).To(BeZero())
			Expect(ocr.callCount()).To(BeZero())
		})

		It("still identifies the attachment", func() {
			Expect(result.Filename).To(Equal("archive.zip"))
			Expect(result.MimeType).To(Equal("application/zip"))
			Expect(result.ProcessedAt).To(Equal(timeSrc.now))
		})
	})

	When("the backend fails", func() {
		BeforeEach(func() {
			pdf.err = errors.New("corrupt document")
		})

		It("captures the error verbatim", func() {
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("corrupt document"))
		})

		It("leaves the extraction fields empty", func() {
			Expect(result.ProcessingMethod).To(BeEmpty())
			Expect(result.ExtractedText).To(BeEmpty())
			Expect(result.InvoiceData).To(BeNil())
		})
	})
})
