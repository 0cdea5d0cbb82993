package driven

import (
	"context"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// IngestRunStore persists ingestion run records so callers can poll
// the progress of background ingestion.
type IngestRunStore interface {
	// SaveRun stores or updates a run record.
	SaveRun(ctx context.Context, run *domain.IngestRun) error

	// GetRun retrieves a run by ID, or domain.ErrNotFound.
	GetRun(ctx context.Context, id string) (*domain.IngestRun, error)

	// LatestRun retrieves the most recently created run for userID,
	// or domain.ErrNotFound when the user has no runs.
	LatestRun(ctx context.Context, userID string) (*domain.IngestRun, error)

	// ActiveRun retrieves a queued or running run for userID,
	// or domain.ErrNotFound when none is in flight.
	ActiveRun(ctx context.Context, userID string) (*domain.IngestRun, error)

	// DeleteUser removes all run records belonging to a user.
	DeleteUser(ctx context.Context, userID string) error
}
