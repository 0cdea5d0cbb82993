package driven

import "context"

// EmbeddingService turns text into vectors. Backed by Ollama
// (nomic-embed-text) or OpenAI (text-embedding-3-*); all chunks and
// queries for one store must come from the same model since distances
// across models are meaningless.
type EmbeddingService interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds several texts in one request. The result
	// preserves input order with exactly one vector per text; a count
	// mismatch from the provider is reported as
	// domain.ErrEmbeddingService.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector size this model produces.
	Dimensions() int

	// ModelName identifies the model, recorded in chunk metadata.
	ModelName() string

	// Ping checks the provider is reachable without embedding anything.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
