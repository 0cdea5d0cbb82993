package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/logger"
)

// AnalyzeStyle derives a writing style profile from the user's most
// recent email chunks.
func (s *AssistantService) AnalyzeStyle(ctx context.Context, userID string) (*domain.StyleProfile, error) {
	logger.Section("Style Analysis")

	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}

	chunks, err := s.chunkStore.RecentChunks(ctx, userID, domain.SourceEmail, domain.StyleSampleLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no email data available", domain.ErrNoData)
	}
	logger.Debug("Analysing %d email chunks", len(chunks))

	prompt := buildStylePrompt(chunks)
	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	profile := parseStyleProfile(raw)
	return profile, nil
}

// buildStylePrompt assembles the style analysis prompt from email
// excerpts, newest first.
func buildStylePrompt(chunks []domain.Chunk) string {
	var b strings.Builder
	b.WriteString("Analyse the writing style of the following email excerpts.\n")
	b.WriteString("Respond with a JSON object with these keys:\n")
	b.WriteString(`  "tone": overall register (e.g. formal, casual)` + "\n")
	b.WriteString(`  "common_phrases": recurring phrases or expressions` + "\n")
	b.WriteString(`  "greetings": typical opening lines` + "\n")
	b.WriteString(`  "sign_offs": typical closing lines` + "\n")
	b.WriteString(`  "vocabulary": word-choice preferences` + "\n")
	b.WriteString(`  "sentence_patterns": sentence-structure habits` + "\n")
	b.WriteString("\nExcerpts:\n")

	for i := range chunks {
		b.WriteString("---\n")
		b.WriteString(chunks[i].Content)
		b.WriteString("\n")
	}
	return b.String()
}

// parseStyleProfile decodes the model's JSON output. Models sometimes
// wrap JSON in code fences or prose, so the first balanced object is
// extracted before decoding. Output that is not valid JSON at all is
// preserved verbatim in the Raw field rather than discarded.
func parseStyleProfile(raw string) *domain.StyleProfile {
	candidate := extractJSONObject(raw)
	if candidate != "" {
		var profile domain.StyleProfile
		if err := json.Unmarshal([]byte(candidate), &profile); err == nil {
			return &profile
		}
		logger.Debug("Style output is not valid JSON, keeping raw text")
	}
	return &domain.StyleProfile{Raw: strings.TrimSpace(raw)}
}

// extractJSONObject returns the substring from the first '{' to the
// last '}', or empty when no object is present.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
