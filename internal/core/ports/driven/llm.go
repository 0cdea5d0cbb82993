package driven

import "context"

// LLMService produces text completions. The assistant service uses it
// for grounded answers and for writing-style analysis; both go through
// the same single-prompt Generate call.
type LLMService interface {
	// Generate completes prompt under the given options.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName identifies the model, shown alongside answers.
	ModelName() string

	// Ping checks the provider is reachable without running inference.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions tunes a single generation call. Zero values mean
// provider defaults.
type GenerateOptions struct {
	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature runs from 0 (deterministic) towards 1 (creative).
	Temperature float64

	// StopWords end generation early when emitted.
	StopWords []string
}
