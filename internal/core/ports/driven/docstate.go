package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// DocumentStateStore tracks per-document ingestion state: metadata,
// the processed flag, and in-flight claims.
type DocumentStateStore interface {
	// GetDocument retrieves document state, or domain.ErrNotFound when
	// the document has never been seen.
	GetDocument(ctx context.Context, userID string, source domain.SourceKind, sourceID string) (*domain.SourceDocument, error)

	// SaveDocument stores or updates document metadata. The processed
	// flag and claim are preserved across updates.
	SaveDocument(ctx context.Context, doc *domain.SourceDocument) error

	// TryClaim atomically claims a document for processing. It returns
	// domain.ErrClaimHeld when another claim newer than staleAfter is
	// already held.
	TryClaim(ctx context.Context, userID string, source domain.SourceKind, sourceID string, now time.Time, staleAfter time.Duration) error

	// ReleaseClaim drops a claim without marking the document processed.
	ReleaseClaim(ctx context.Context, userID string, source domain.SourceKind, sourceID string) error

	// MarkProcessed sets the processed flag and releases any claim.
	MarkProcessed(ctx context.Context, userID string, source domain.SourceKind, sourceID string) error

	// DeleteUser removes all document state belonging to a user.
	DeleteUser(ctx context.Context, userID string) error
}
