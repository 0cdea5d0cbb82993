// Package drive fetches Google Docs content via the Drive REST API.
//
// Files are listed newest-modified first and exported as plain text, so
// downstream processing sees the same shape as email bodies.
package drive

import (
	"context"
	"fmt"
	"io"

	driveapi "google.golang.org/api/drive/v3"

	"github.com/custodia-labs/mailrag-cli/internal/connectors/google"
	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// docsQuery selects native Google Docs, the only Drive type exported
// as plain text without a conversion step.
const docsQuery = "mimeType='application/vnd.google-apps.document' and trashed=false"

// exportMIME is the export format requested for document content.
const exportMIME = "text/plain"

// listFields limits list responses to the fields the connector reads.
const listFields = "files(id, name, modifiedTime, owners(emailAddress, displayName))"

// Ensure Connector implements the MailboxSource interface.
var _ driven.MailboxSource = (*Connector)(nil)

// Config holds Drive connector configuration.
type Config struct {
	// Query overrides the default file selection query.
	Query string
	// MaxResults is the default fetch size when the caller does not
	// specify a limit.
	MaxResults int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Query:      docsQuery,
		MaxResults: 50,
	}
}

// Connector fetches recently modified documents from Google Drive.
type Connector struct {
	svc     *driveapi.Service
	limiter *google.RateLimiter
	cfg     Config
}

// New creates a Drive connector authenticated via the token provider.
func New(ctx context.Context, provider driven.TokenProvider, cfg Config) (*Connector, error) {
	ts := google.NewTokenSource(ctx, provider)
	svc, err := google.NewDriveService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService creates a connector around an existing Drive API client.
func NewWithService(svc *driveapi.Service, cfg Config) *Connector {
	if cfg.Query == "" {
		cfg.Query = docsQuery
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	return &Connector{
		svc:     svc,
		limiter: google.NewRateLimiter(google.ServiceDrive),
		cfg:     cfg,
	}
}

// Source identifies the documents this connector produces.
func (c *Connector) Source() domain.SourceKind {
	return domain.SourceDrive
}

// FetchRecent returns up to limit documents, newest-modified first.
func (c *Connector) FetchRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = int(c.cfg.MaxResults)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Files.List().
		Q(c.cfg.Query).
		OrderBy("modifiedTime desc").
		PageSize(int64(limit)).
		Fields(listFields).
		Context(ctx).Do()
	if err != nil {
		return nil, c.wrapAPIError("list files", err)
	}

	messages := make([]domain.Message, 0, len(resp.Files))
	for _, file := range resp.Files {
		body, err := c.exportText(ctx, file.Id)
		if err != nil {
			// The file may have been deleted between list and export.
			if google.IsNotFound(err) {
				continue
			}
			return nil, c.wrapAPIError(fmt.Sprintf("export file %s", file.Id), err)
		}

		messages = append(messages, toMessage(file, body))
	}

	return messages, nil
}

// exportText downloads the document rendered as plain text.
func (c *Connector) exportText(ctx context.Context, fileID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.svc.Files.Export(fileID, exportMIME).Context(ctx).Download()
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	return string(data), nil
}

// Close releases resources. The Drive client holds none.
func (c *Connector) Close() error {
	return nil
}

func (c *Connector) wrapAPIError(op string, err error) error {
	if google.IsRateLimited(err) {
		c.limiter.RecordRateLimitError(0)
	}
	return fmt.Errorf("drive: %s: %w", op, google.WrapError(err))
}
