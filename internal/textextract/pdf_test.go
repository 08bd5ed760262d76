package textextract

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PDFExtractor", func() {
	It("fails cleanly on bytes that are not a PDF", func() {
		extractor := NewPDFExtractor(nil)
		_, err := extractor.Extract(context.Background(), []byte("not a pdf"))
		Expect(err).To(MatchError(ContainSubstring("opening PDF")))
	})
})
