package invoice

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "exports"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the base directory", func() {
		info, err := os.Stat(filepath.Join(tmpDir, "exports"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("Save and Get", func() {
		It("round-trips file contents", func() {
			name, err := storage.Save("invoices.csv", []byte("data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("invoices.csv"))

			data, err := storage.Get("invoices.csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("data")))
		})
	})

	Describe("Delete", func() {
		It("removes a saved file", func() {
			_, err := storage.Save("invoices.csv", []byte("data"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("invoices.csv")).To(Succeed())
			_, err = storage.Get("invoices.csv")
			Expect(err).To(HaveOccurred())
		})

		It("errors for a missing file", func() {
			Expect(storage.Delete("missing.csv")).NotTo(Succeed())
		})
	})
})
