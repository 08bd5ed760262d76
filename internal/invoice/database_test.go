package invoice

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveProcessed", func() {
		var (
			email *ProcessedEmail
			err   error
		)

		BeforeEach(func() {
			email = &ProcessedEmail{
				ID:           "msg-1",
				Subject:      "חשבונית ינואר",
				From:         "billing@example.com",
				InternalDate: 1705276800000,
				Attachments: []ProcessedAttachment{
					{Filename: "invoice.pdf", Success: true},
				},
				IsProcessed: true,
				ProcessedAt: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveProcessed(email)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("round-trips the email by message ID", func() {
				saved, getErr := db.GetProcessed("msg-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Subject).To(Equal("חשבונית ינואר"))
				Expect(saved.Attachments).To(HaveLen(1))
				Expect(saved.IsProcessed).To(BeTrue())
			})
		})

		When("the email was already saved", func() {
			BeforeEach(func() {
				earlier := *email
				earlier.Subject = "old subject"
				Expect(db.SaveProcessed(&earlier)).To(Succeed())
			})

			It("overwrites the previous results", func() {
				saved, getErr := db.GetProcessed("msg-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Subject).To(Equal("חשבונית ינואר"))
			})
		})
	})

	Describe("GetProcessed", func() {
		When("the email does not exist", func() {
			It("returns an error", func() {
				_, err := db.GetProcessed("missing")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ListProcessed", func() {
		When("the database is empty", func() {
			It("returns an empty list", func() {
				emails, err := db.ListProcessed()
				Expect(err).NotTo(HaveOccurred())
				Expect(emails).To(BeEmpty())
			})
		})

		When("multiple emails are stored", func() {
			BeforeEach(func() {
				Expect(db.SaveProcessed(&ProcessedEmail{ID: "newer", InternalDate: 2000})).To(Succeed())
				Expect(db.SaveProcessed(&ProcessedEmail{ID: "older", InternalDate: 1000})).To(Succeed())
			})

			It("returns them oldest first", func() {
				emails, err := db.ListProcessed()
				Expect(err).NotTo(HaveOccurred())
				Expect(emails).To(HaveLen(2))
				Expect(emails[0].ID).To(Equal("older"))
				Expect(emails[1].ID).To(Equal("newer"))
			})
		})
	})

	Describe("DeleteProcessed", func() {
		BeforeEach(func() {
			Expect(db.SaveProcessed(&ProcessedEmail{ID: "msg-1"})).To(Succeed())
		})

		It("removes the stored results", func() {
			Expect(db.DeleteProcessed("msg-1")).To(Succeed())
			_, err := db.GetProcessed("msg-1")
			Expect(err).To(HaveOccurred())
		})
	})
})
