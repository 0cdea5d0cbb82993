// Package gmail fetches email messages via the Gmail REST API.
//
// Messages are fetched in full format and flattened to plain text by
// walking the MIME tree for text/plain parts. The connector respects
// Gmail API quotas through a shared token-bucket rate limiter.
package gmail

import (
	"context"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/mailrag-cli/internal/connectors/google"
	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// gmailUser is the special "authenticated user" identifier.
const gmailUser = "me"

// Ensure Connector implements the MailboxSource interface.
var _ driven.MailboxSource = (*Connector)(nil)

// Connector fetches recent email messages from a Gmail account.
type Connector struct {
	svc     *gmailapi.Service
	limiter *google.RateLimiter
	cfg     Config
}

// New creates a Gmail connector authenticated via the token provider.
func New(ctx context.Context, provider driven.TokenProvider, cfg Config) (*Connector, error) {
	ts := google.NewTokenSource(ctx, provider)
	svc, err := google.NewGmailService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService creates a connector around an existing Gmail API client.
func NewWithService(svc *gmailapi.Service, cfg Config) *Connector {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	return &Connector{
		svc:     svc,
		limiter: google.NewRateLimiter(google.ServiceGmail),
		cfg:     cfg,
	}
}

// Source identifies the documents this connector produces.
func (c *Connector) Source() domain.SourceKind {
	return domain.SourceEmail
}

// FetchRecent returns up to limit messages, newest first.
func (c *Connector) FetchRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = int(c.cfg.MaxResults)
	}

	call := c.svc.Users.Messages.List(gmailUser).MaxResults(int64(limit))
	if len(c.cfg.LabelIDs) > 0 {
		call = call.LabelIds(c.cfg.LabelIDs...)
	}
	if c.cfg.Query != "" {
		call = call.Q(c.cfg.Query)
	}
	if c.cfg.IncludeSpamTrash {
		call = call.IncludeSpamTrash(true)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, c.wrapAPIError("list messages", err)
	}

	messages := make([]domain.Message, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		full, err := c.svc.Users.Messages.Get(gmailUser, ref.Id).
			Format("full").Context(ctx).Do()
		if err != nil {
			// The message may have been deleted between list and get.
			if google.IsNotFound(err) {
				continue
			}
			return nil, c.wrapAPIError(fmt.Sprintf("get message %s", ref.Id), err)
		}

		messages = append(messages, toMessage(full))
	}

	return messages, nil
}

// Close releases resources. The Gmail client holds none.
func (c *Connector) Close() error {
	return nil
}

func (c *Connector) wrapAPIError(op string, err error) error {
	if google.IsRateLimited(err) {
		c.limiter.RecordRateLimitError(0)
	}
	return fmt.Errorf("gmail: %s: %w", op, google.WrapError(err))
}
