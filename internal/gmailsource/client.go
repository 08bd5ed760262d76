package gmailsource

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

// DefaultQuery matches the usual Hebrew and English invoice markers.
const DefaultQuery = "חשבונית OR קבלה OR invoice OR receipt"

// DefaultMaxResults caps a search when the caller does not.
const DefaultMaxResults = 100

const gmailUser = "me"

// Client implements invoice.EmailSource and invoice.AttachmentFetcher
// against the Gmail API for the authorized user.
type Client struct {
	svc *gmail.Service
}

// NewClient builds a Client from stored OAuth2 state. It fails with a
// descriptive error when no token has been stored yet.
func NewClient(ctx context.Context, credentialsPath, tokenPath string) (*Client, error) {
	httpClient, err := authClient(ctx, credentialsPath, tokenPath)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Search lists messages matching the query, date-bounded when After or
// Before are set, and resolves each hit to a full email.
func (c *Client) Search(ctx context.Context, opts invoice.SearchOptions) ([]invoice.Email, error) {
	query := opts.Query
	if query == "" {
		query = DefaultQuery
	}
	if !opts.After.IsZero() {
		query += " after:" + opts.After.Format("2006/01/02")
	}
	if !opts.Before.IsZero() {
		query += " before:" + opts.Before.Format("2006/01/02")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	slog.Info("searching gmail", "query", query, "max_results", maxResults)
	resp, err := c.svc.Users.Messages.List(gmailUser).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	emails := make([]invoice.Email, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		email, err := c.GetEmail(ctx, msg.Id)
		if err != nil {
			slog.Error("fetching message details failed", "id", msg.Id, "error", err)
			continue
		}
		emails = append(emails, email)
	}
	return emails, nil
}

// GetEmail fetches one message and flattens the header and attachment
// metadata the pipeline needs.
func (c *Client) GetEmail(ctx context.Context, id string) (invoice.Email, error) {
	msg, err := c.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return invoice.Email{}, fmt.Errorf("getting message %s: %w", id, err)
	}

	email := invoice.Email{
		ID:           msg.Id,
		InternalDate: msg.InternalDate,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				email.Subject = h.Value
			case "From":
				email.From = h.Value
			}
		}
		email.Attachments = collectAttachments(msg.Payload.Parts, nil)
	}
	return email, nil
}

// collectAttachments walks the MIME part tree; a part counts as an
// attachment when it carries both a filename and an attachment ID.
func collectAttachments(parts []*gmail.MessagePart, acc []invoice.AttachmentRef) []invoice.AttachmentRef {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
			acc = append(acc, invoice.AttachmentRef{
				ID:       part.Body.AttachmentId,
				Filename: part.Filename,
				MimeType: part.MimeType,
			})
		}
		acc = collectAttachments(part.Parts, acc)
	}
	return acc
}

// FetchAttachment downloads one attachment's raw bytes.
func (c *Client) FetchAttachment(ctx context.Context, emailID, attachmentID string) ([]byte, error) {
	att, err := c.svc.Users.Messages.Attachments.Get(gmailUser, emailID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting attachment %s: %w", attachmentID, err)
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(att.Data, "="))
	if err != nil {
		return nil, fmt.Errorf("decoding attachment data: %w", err)
	}
	return data, nil
}
