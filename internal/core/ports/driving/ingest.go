package driving

import (
	"context"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// IngestService pulls documents from configured sources, segments
// them, embeds the segments, and stores the result.
type IngestService interface {
	// StartIngest begins a background ingestion run for userID and
	// returns its run ID immediately. Returns domain.ErrIngestInProgress
	// when a run for userID is already queued or running.
	StartIngest(ctx context.Context, userID string, limit int) (string, error)

	// Ingest runs an ingestion pass synchronously and returns the
	// completed run record.
	Ingest(ctx context.Context, userID string, limit int) (*domain.IngestRun, error)

	// Status reports the state of a run by ID.
	Status(ctx context.Context, runID string) (*domain.IngestRun, error)

	// LatestStatus reports the most recent run for userID.
	LatestStatus(ctx context.Context, userID string) (*domain.IngestRun, error)

	// PurgeUser deletes all ingested data for userID: chunks, document
	// state, and run history. Returns domain.ErrIngestInProgress when a
	// run for userID is queued or running.
	PurgeUser(ctx context.Context, userID string) error
}
