package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag-cli/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// AssistantService answers questions grounded in stored chunks.
type AssistantService struct {
	chunkStore driven.ChunkStore
	embedder   driven.EmbeddingService
	llm        driven.LLMService

	maxTokens   int
	temperature float64
	now         func() time.Time
}

// AssistantOption configures an AssistantService.
type AssistantOption func(*AssistantService)

// WithMaxTokens caps generation length. Zero means the provider default.
func WithMaxTokens(n int) AssistantOption {
	return func(s *AssistantService) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) AssistantOption {
	return func(s *AssistantService) {
		if t >= 0 {
			s.temperature = t
		}
	}
}

// WithAssistantClock overrides the time source. Useful for testing
// time-window filters.
func WithAssistantClock(now func() time.Time) AssistantOption {
	return func(s *AssistantService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAssistantService creates a new assistant service.
func NewAssistantService(
	chunkStore driven.ChunkStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	opts ...AssistantOption,
) *AssistantService {
	s := &AssistantService{
		chunkStore:  chunkStore,
		embedder:    embedder,
		llm:         llm,
		temperature: 0.2,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query retrieves the chunks most relevant to qc and generates an
// answer grounded in them.
func (s *AssistantService) Query(ctx context.Context, qc domain.QueryContext) (string, []domain.ScoredChunk, error) {
	logger.Section("Query Execution")

	if qc.UserID == "" {
		return "", nil, fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}
	query := strings.TrimSpace(qc.Query)
	if query == "" {
		return "", nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	logger.Debug("Query: %q, k=%d", query, qc.Limit())

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingService, err)
	}

	filter := qc.Filter(s.now())
	chunks, err := s.chunkStore.NearestChunks(ctx, qc.UserID, embedding, filter, qc.Limit())
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	logger.Debug("Retrieved %d chunks", len(chunks))

	prompt := buildQueryPrompt(query, chunks)
	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	return strings.TrimSpace(answer), chunks, nil
}

// buildQueryPrompt assembles the grounding prompt: numbered context
// passages in rank order, then the question.
func buildQueryPrompt(query string, chunks []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("You are a personal assistant with access to the user's emails, documents, and calendar.\n")
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, say so instead of guessing.\n\n")
	b.WriteString("Context:\n")

	if len(chunks) == 0 {
		b.WriteString("No relevant context found.\n")
	} else {
		for i, sc := range chunks {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, describeChunk(&sc.Chunk))
			b.WriteString(sc.Chunk.Content)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// describeChunk renders a one-line provenance header for a context
// passage, from whatever metadata the chunk carries.
func describeChunk(c *domain.Chunk) string {
	parts := []string{string(c.Source)}
	if subject, ok := c.Metadata["subject"].(string); ok && subject != "" {
		parts = append(parts, subject)
	}
	if sender, ok := c.Metadata["sender"].(string); ok && sender != "" {
		parts = append(parts, "from "+sender)
	}
	if !c.CreatedAt.IsZero() {
		parts = append(parts, c.CreatedAt.Format("2006-01-02"))
	}
	return strings.Join(parts, ", ")
}
