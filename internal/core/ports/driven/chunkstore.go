package driven

import (
	"context"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// ChunkStore persists chunks and their embeddings and answers
// similarity queries. Backed by SQLite.
type ChunkStore interface {
	// SaveChunks stores a batch of chunks in a single transaction.
	// A chunk replaces any earlier chunk with the same user, source,
	// source ID, and position.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// NearestChunks returns up to k chunks belonging to userID, closest
	// to the query embedding under the store's distance metric, in
	// ascending distance order. Filter narrows the candidate set before
	// distances are computed.
	NearestChunks(ctx context.Context, userID string, query []float32, filter domain.ChunkFilter, k int) ([]domain.ScoredChunk, error)

	// RecentChunks returns up to limit chunks for userID and source,
	// newest first by creation time.
	RecentChunks(ctx context.Context, userID string, source domain.SourceKind, limit int) ([]domain.Chunk, error)

	// CountChunks reports the number of stored chunks for userID.
	CountChunks(ctx context.Context, userID string) (int, error)

	// DeleteUser removes all chunks belonging to userID.
	DeleteUser(ctx context.Context, userID string) error
}
