package driven

import (
	"context"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// MailboxSource fetches messages from an upstream account.
//
// Implementations may include:
//   - Gmail (via the Gmail REST API)
//   - Google Drive (document exports)
//   - Google Calendar (event descriptions)
type MailboxSource interface {
	// Source identifies the kind of documents this source produces.
	Source() domain.SourceKind

	// FetchRecent returns up to limit messages, newest first. A limit
	// of zero or less means the implementation's default page size.
	FetchRecent(ctx context.Context, limit int) ([]domain.Message, error)

	// Close releases resources.
	Close() error
}
