package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SearchOptions narrows an email-source search.
type SearchOptions struct {
	Query      string
	After      time.Time
	Before     time.Time
	MaxResults int64
}

// EmailSource lists candidate invoice emails. Implemented by the Gmail
// client; substitutable for testing.
type EmailSource interface {
	Search(ctx context.Context, opts SearchOptions) ([]Email, error)
	GetEmail(ctx context.Context, id string) (Email, error)
}

// AttachmentFetcher downloads one attachment's raw bytes.
type AttachmentFetcher interface {
	FetchAttachment(ctx context.Context, emailID, attachmentID string) ([]byte, error)
}

// DefaultConcurrency is the fan-out limit for attachment processing
// when none is configured.
const DefaultConcurrency = 4

// Service drives batch processing: it fetches attachment bytes, runs
// the Processor over them with a bounded fan-out, and records the
// outcomes in the results store.
type Service struct {
	db          DB
	source      EmailSource
	fetcher     AttachmentFetcher
	processor   *Processor
	concurrency int
	timeSource  TimeSource
}

// NewService creates a Service with the real clock.
func NewService(db DB, source EmailSource, fetcher AttachmentFetcher, processor *Processor, concurrency int) *Service {
	return NewServiceWithDeps(db, source, fetcher, processor, concurrency, defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with a custom clock for testing.
func NewServiceWithDeps(db DB, source EmailSource, fetcher AttachmentFetcher, processor *Processor, concurrency int, ts TimeSource) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		db:          db,
		source:      source,
		fetcher:     fetcher,
		processor:   processor,
		concurrency: concurrency,
		timeSource:  ts,
	}
}

// SearchEmails lists candidate invoice emails from the source.
func (s *Service) SearchEmails(ctx context.Context, opts SearchOptions) ([]Email, error) {
	emails, err := s.source.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("searching emails: %w", err)
	}
	return emails, nil
}

// ProcessMessages resolves message IDs to emails and processes them.
// Messages whose details cannot be fetched are logged and skipped.
func (s *Service) ProcessMessages(ctx context.Context, ids []string) ([]ProcessedEmail, error) {
	emails := make([]Email, 0, len(ids))
	for _, id := range ids {
		email, err := s.source.GetEmail(ctx, id)
		if err != nil {
			slog.Error("fetching email details failed", "id", id, "error", err)
			continue
		}
		emails = append(emails, email)
	}
	return s.ProcessEmails(ctx, emails), nil
}

// ProcessEmails processes every attachment of the given emails with a
// bounded fan-out. Per-attachment failures are captured in the results;
// there is no batch-level failure. If ctx is cancelled, no further
// attachments are scheduled and the results completed so far are kept.
// Emails already present in the store are returned as-is, unprocessed
// ones are processed and saved.
func (s *Service) ProcessEmails(ctx context.Context, emails []Email) []ProcessedEmail {
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	results := make([]*ProcessedEmail, len(emails))
	scheduled := make([]int, len(emails))

	for i, email := range emails {
		if cached, err := s.db.GetProcessed(email.ID); err == nil && cached != nil && cached.IsProcessed {
			results[i] = cached
			scheduled[i] = len(cached.Attachments)
			continue
		}

		pe := &ProcessedEmail{
			ID:           email.ID,
			Subject:      email.Subject,
			From:         email.From,
			InternalDate: email.InternalDate,
			Attachments:  make([]ProcessedAttachment, len(email.Attachments)),
		}
		results[i] = pe

		for j, ref := range email.Attachments {
			if ctx.Err() != nil {
				break
			}
			scheduled[i]++
			wg.Add(1)
			go func(slot *ProcessedAttachment, emailID string, ref AttachmentRef) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				*slot = s.processAttachment(ctx, emailID, ref)
			}(&pe.Attachments[j], email.ID, ref)
		}
	}
	wg.Wait()

	out := make([]ProcessedEmail, 0, len(emails))
	for i, pe := range results {
		if pe == nil {
			continue
		}
		if !pe.IsProcessed {
			pe.Attachments = pe.Attachments[:scheduled[i]]
			pe.IsProcessed = scheduled[i] > 0
			pe.ProcessedAt = s.timeSource.Now()
			if !pe.IsProcessed {
				continue
			}
			if err := s.db.SaveProcessed(pe); err != nil {
				slog.Error("saving processed email failed", "id", pe.ID, "error", err)
			}
		}
		out = append(out, *pe)
	}
	return out
}

// processAttachment downloads one attachment and runs it through the
// Processor. Download failures become success:false results.
func (s *Service) processAttachment(ctx context.Context, emailID string, ref AttachmentRef) ProcessedAttachment {
	data, err := s.fetcher.FetchAttachment(ctx, emailID, ref.ID)
	if err != nil {
		slog.Error("downloading attachment failed",
			"email_id", emailID,
			"filename", ref.Filename,
			"error", err,
		)
		return ProcessedAttachment{
			Filename:    ref.Filename,
			MimeType:    ref.MimeType,
			Error:       fmt.Sprintf("downloading attachment: %v", err),
			ProcessedAt: s.timeSource.Now(),
		}
	}
	return s.processor.Process(ctx, RawAttachment{
		Filename: ref.Filename,
		MimeType: ref.MimeType,
		Data:     data,
	})
}

// ListProcessed returns every processed email in the store.
func (s *Service) ListProcessed() ([]*ProcessedEmail, error) {
	processed, err := s.db.ListProcessed()
	if err != nil {
		return nil, fmt.Errorf("listing processed emails: %w", err)
	}
	return processed, nil
}

// DeleteProcessed removes one email's results so it can be reprocessed.
func (s *Service) DeleteProcessed(id string) error {
	if err := s.db.DeleteProcessed(id); err != nil {
		return fmt.Errorf("deleting processed email: %w", err)
	}
	return nil
}
