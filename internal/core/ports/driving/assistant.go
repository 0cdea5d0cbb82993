package driving

import (
	"context"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// AssistantService answers questions grounded in a user's stored
// documents and analyses their writing style.
type AssistantService interface {
	// Query retrieves the chunks most relevant to qc and generates an
	// answer grounded in them. Returns the answer together with the
	// chunks it was grounded in.
	Query(ctx context.Context, qc domain.QueryContext) (string, []domain.ScoredChunk, error)

	// AnalyzeStyle derives a writing style profile from the user's most
	// recent email chunks. Returns domain.ErrNoData when the user has
	// no email chunks stored.
	AnalyzeStyle(ctx context.Context, userID string) (*domain.StyleProfile, error)
}
